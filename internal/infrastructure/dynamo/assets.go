package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/iams-api/internal/domain"
)

// AssetRepo provides typed DynamoDB operations for the assets table.
type AssetRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAssetRepo(client *dynamodb.Client, tableName string) *AssetRepo {
	return &AssetRepo{client: client, tableName: tableName}
}

func (r *AssetRepo) Put(ctx context.Context, a *domain.Asset) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal asset: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AssetRepo) Get(ctx context.Context, assetID string) (*domain.Asset, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldAssetID, assetID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("asset %s: %w", assetID, domain.ErrNotFound)
	}
	var a domain.Asset
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.Asset, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexTenant),
		KeyConditionExpression: aws.String("tenant_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	var assets []domain.Asset
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Asset
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		assets = append(assets, batch...)
	}
	return assets, nil
}

// ListWarrantyTracked scans all tenants for active assets that are not
// Retired or Lost and carry a warranty end date.
func (r *AssetRepo) ListWarrantyTracked(ctx context.Context) ([]domain.Asset, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		FilterExpression: aws.String(
			"#active = :t AND attribute_exists(#end) AND NOT (#status IN (:retired, :lost))"),
		ExpressionAttributeNames: map[string]string{
			"#active": fieldIsActive,
			"#end":    fieldWarrantyEndDate,
			"#status": fieldStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":       &types.AttributeValueMemberBOOL{Value: true},
			":retired": &types.AttributeValueMemberS{Value: domain.AssetRetired},
			":lost":    &types.AttributeValueMemberS{Value: domain.AssetLost},
		},
	})
	var assets []domain.Asset
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Asset
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		assets = append(assets, batch...)
	}
	return assets, nil
}

// SetWarranty sets or, when end is nil, removes the warranty end date.
func (r *AssetRepo) SetWarranty(ctx context.Context, assetID string, end *time.Time, now time.Time) error {
	updates := map[string]interface{}{fieldUpdatedAt: now}
	if end != nil {
		updates[fieldWarrantyEndDate] = *end
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	expr := ue.Expr
	if end == nil {
		ue.Names["#end"] = fieldWarrantyEndDate
		expr += " REMOVE #end"
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAssetID, assetID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(asset_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("asset %s: %w", assetID, domain.ErrNotFound)
	}
	return err
}

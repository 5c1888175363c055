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

// WarrantyAlertRepo provides typed DynamoDB operations for the warranty_alerts table.
type WarrantyAlertRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewWarrantyAlertRepo(client *dynamodb.Client, tableName string) *WarrantyAlertRepo {
	return &WarrantyAlertRepo{client: client, tableName: tableName}
}

func (r *WarrantyAlertRepo) Put(ctx context.Context, a *domain.WarrantyAlert) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal warranty alert: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *WarrantyAlertRepo) Get(ctx context.Context, alertID string) (*domain.WarrantyAlert, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldAlertID, alertID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("warranty alert %s: %w", alertID, domain.ErrNotFound)
	}
	var a domain.WarrantyAlert
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByAssetAndType returns the alert of the given type for an asset,
// or domain.ErrNotFound.
func (r *WarrantyAlertRepo) FindByAssetAndType(ctx context.Context, assetID, alertType string) (*domain.WarrantyAlert, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexAssetAlertType),
		KeyConditionExpression: aws.String("asset_id = :aid AND alert_type = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":aid": &types.AttributeValueMemberS{Value: assetID},
			":t":   &types.AttributeValueMemberS{Value: alertType},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("%s alert for asset %s: %w", alertType, assetID, domain.ErrNotFound)
	}
	var a domain.WarrantyAlert
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *WarrantyAlertRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.WarrantyAlert, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexTenant),
		KeyConditionExpression: aws.String("tenant_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	var alerts []domain.WarrantyAlert
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.WarrantyAlert
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		alerts = append(alerts, batch...)
	}
	return alerts, nil
}

func (r *WarrantyAlertRepo) UpdateDaysRemaining(ctx context.Context, alertID string, days int) error {
	return r.update(ctx, alertID, map[string]interface{}{fieldDaysRemaining: days})
}

func (r *WarrantyAlertRepo) Acknowledge(ctx context.Context, alertID, userID string, at time.Time) error {
	return r.update(ctx, alertID, map[string]interface{}{
		fieldAcknowledgedAt: at,
		fieldAcknowledgedBy: userID,
	})
}

func (r *WarrantyAlertRepo) Delete(ctx context.Context, alertID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldAlertID, alertID),
	})
	return err
}

func (r *WarrantyAlertRepo) update(ctx context.Context, alertID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAlertID, alertID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(alert_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("warranty alert %s: %w", alertID, domain.ErrNotFound)
	}
	return err
}

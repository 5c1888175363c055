package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/iams-api/internal/config"
)

// Bootstrap creates the tables and GSIs if they don't already exist.
// Existing tables are left alone, so it runs on every startup.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	for _, in := range tableDefinitions(tables) {
		createTable(ctx, client, in)
	}
}

func tableDefinitions(tables config.DynamoTables) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		{
			TableName:   aws.String(tables.Notifications),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldNotificationID),
				strAttr(fieldUserID),
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldNotificationID), KeyType: types.KeyTypeHash},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexUserNotifications, fieldUserID, fieldNotificationID),
			},
		},
		{
			TableName:   aws.String(tables.WarrantyAlerts),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldAlertID),
				strAttr(fieldAssetID),
				strAttr(fieldAlertType),
				strAttr(fieldTenantID),
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldAlertID), KeyType: types.KeyTypeHash},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexAssetAlertType, fieldAssetID, fieldAlertType),
				gsi(indexTenant, fieldTenantID, ""),
			},
		},
		{
			TableName:   aws.String(tables.Assets),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldAssetID),
				strAttr(fieldTenantID),
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldAssetID), KeyType: types.KeyTypeHash},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexTenant, fieldTenantID, ""),
			},
		},
	}
}

func strAttr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
		return
	}
	slog.Info("created table", "table", *input.TableName)
}

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

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldNotificationID, notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListRecent returns up to limit notifications for the user, newest first.
// The GSI sort key is the ULID, so descending key order is creation order.
func (r *NotificationRepo) ListRecent(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserNotifications),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, err
	}
	notifications := make([]domain.Notification, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// ListUnread returns every unread notification of the user across all pages.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	p := dynamodb.NewQueryPaginator(r.client, r.unreadQuery(userID, types.SelectAllAttributes))
	var notifications []domain.Notification
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		notifications = append(notifications, batch...)
	}
	return notifications, nil
}

// Count returns the unread and total counts for the user.
func (r *NotificationRepo) Count(ctx context.Context, userID string) (domain.NotificationCount, error) {
	total, err := r.count(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserNotifications),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return domain.NotificationCount{}, err
	}
	unread, err := r.count(ctx, r.unreadQuery(userID, types.SelectCount))
	if err != nil {
		return domain.NotificationCount{}, err
	}
	return domain.NotificationCount{Unread: unread, Total: total}, nil
}

// MarkRead sets is_read and read_at. A row that is already read is left untouched.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string, readAt time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldIsRead: true,
		fieldReadAt: readAt,
	})
	if err != nil {
		return err
	}
	ue.Values[":unread"] = &types.AttributeValueMemberBOOL{Value: false}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldNotificationID, notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(notification_id) AND is_read = :unread"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return nil
	}
	return err
}

func (r *NotificationRepo) Delete(ctx context.Context, notificationID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldNotificationID, notificationID),
	})
	return err
}

func (r *NotificationRepo) unreadQuery(userID string, sel types.Select) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserNotifications),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("is_read = :unread"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid":    &types.AttributeValueMemberS{Value: userID},
			":unread": &types.AttributeValueMemberBOOL{Value: false},
		},
		Select: sel,
	}
}

// count sums Count over all pages; a filtered query reports matches per page.
func (r *NotificationRepo) count(ctx context.Context, in *dynamodb.QueryInput) (int, error) {
	p := dynamodb.NewQueryPaginator(r.client, in)
	n := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		n += int(page.Count)
	}
	return n, nil
}

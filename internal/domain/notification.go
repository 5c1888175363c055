package domain

import "time"

// Notification types. The field is free-form; these are the values the client styles.
const (
	NotificationInfo    = "Info"
	NotificationWarning = "Warning"
	NotificationError   = "Error"
	NotificationSuccess = "Success"
)

// Notification is a message owned by exactly one user.
type Notification struct {
	NotificationID    string     `json:"id" dynamodbav:"notification_id"`
	TenantID          string     `json:"tenantId" dynamodbav:"tenant_id"`
	UserID            string     `json:"userId" dynamodbav:"user_id"`
	Title             string     `json:"title" dynamodbav:"title"`
	Message           string     `json:"message" dynamodbav:"message"`
	Type              string     `json:"type" dynamodbav:"type"`
	Link              *string    `json:"link,omitempty" dynamodbav:"link,omitempty"`
	RelatedEntityType *string    `json:"relatedEntityType,omitempty" dynamodbav:"related_entity_type,omitempty"`
	RelatedEntityID   *string    `json:"relatedEntityId,omitempty" dynamodbav:"related_entity_id,omitempty"`
	IsRead            bool       `json:"isRead" dynamodbav:"is_read"`
	CreatedAt         time.Time  `json:"createdAt" dynamodbav:"created_at"`
	ReadAt            *time.Time `json:"readAt,omitempty" dynamodbav:"read_at,omitempty"`
}

// NotificationCount is the unread/total aggregate for one user.
type NotificationCount struct {
	Unread int `json:"unreadCount"`
	Total  int `json:"totalCount"`
}

// CreateTestNotificationRequest is the body of POST /notifications/test.
type CreateTestNotificationRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=2000"`
	Type    string `json:"type" validate:"omitempty,oneof=Info Warning Error Success"`
	Link    string `json:"link" validate:"omitempty,max=500"`
}

package dynamo

// DynamoDB attribute and index names shared by the repos and Bootstrap.
// Must match the dynamodbav tags in package domain.
const (
	fieldNotificationID  = "notification_id"
	fieldUserID          = "user_id"
	fieldIsRead          = "is_read"
	fieldReadAt          = "read_at"
	fieldAlertID         = "alert_id"
	fieldAlertType       = "alert_type"
	fieldAssetID         = "asset_id"
	fieldTenantID        = "tenant_id"
	fieldDaysRemaining   = "days_remaining"
	fieldAcknowledgedAt  = "acknowledged_at"
	fieldAcknowledgedBy  = "acknowledged_by"
	fieldStatus          = "status"
	fieldIsActive        = "is_active"
	fieldWarrantyEndDate = "warranty_end_date"
	fieldUpdatedAt       = "updated_at"

	indexUserNotifications = "user_id-notification_id-index"
	indexAssetAlertType    = "asset_id-alert_type-index"
	indexTenant            = "tenant_id-index"
)

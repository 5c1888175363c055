package domain

import "time"

// Warranty alert types.
const (
	AlertExpiring = "Expiring"
	AlertExpired  = "Expired"
)

// WarrantyAlert records that an asset's warranty is about to lapse or has lapsed.
// At most one row per (AssetID, AlertType) is kept; the scanner enforces it.
type WarrantyAlert struct {
	AlertID         string     `json:"id" dynamodbav:"alert_id"`
	TenantID        string     `json:"tenantId" dynamodbav:"tenant_id"`
	AssetID         string     `json:"assetId" dynamodbav:"asset_id"`
	AlertType       string     `json:"alertType" dynamodbav:"alert_type"`
	WarrantyEndDate time.Time  `json:"warrantyEndDate" dynamodbav:"warranty_end_date"`
	DaysRemaining   int        `json:"daysRemaining" dynamodbav:"days_remaining"`
	CreatedAt       time.Time  `json:"createdAt" dynamodbav:"created_at"`
	AcknowledgedAt  *time.Time `json:"acknowledgedAt,omitempty" dynamodbav:"acknowledged_at,omitempty"`
	AcknowledgedBy  *string    `json:"acknowledgedBy,omitempty" dynamodbav:"acknowledged_by,omitempty"`
}

// Acknowledged reports whether a user has acknowledged the alert.
func (a *WarrantyAlert) Acknowledged() bool {
	return a.AcknowledgedAt != nil
}

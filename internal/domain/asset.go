package domain

import "time"

// Asset statuses.
const (
	AssetAvailable = "Available"
	AssetAssigned  = "Assigned"
	AssetInRepair  = "InRepair"
	AssetRetired   = "Retired"
	AssetLost      = "Lost"
)

type Asset struct {
	AssetID         string     `json:"id" dynamodbav:"asset_id"`
	TenantID        string     `json:"tenantId" dynamodbav:"tenant_id"`
	AssetTag        string     `json:"assetTag" dynamodbav:"asset_tag"`
	Name            string     `json:"name" dynamodbav:"name"`
	Status          string     `json:"status" dynamodbav:"status"`
	IsActive        bool       `json:"isActive" dynamodbav:"is_active"`
	AssignedUserID  *string    `json:"assignedUserId,omitempty" dynamodbav:"assigned_user_id,omitempty"`
	WarrantyEndDate *time.Time `json:"warrantyEndDate,omitempty" dynamodbav:"warranty_end_date,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" dynamodbav:"updated_at"`
}

// WarrantyTracked reports whether the warranty scanner should look at the asset.
func (a *Asset) WarrantyTracked() bool {
	if !a.IsActive || a.WarrantyEndDate == nil {
		return false
	}
	return a.Status != AssetRetired && a.Status != AssetLost
}

type CreateAssetRequest struct {
	AssetTag        string  `json:"assetTag" validate:"required,max=64"`
	Name            string  `json:"name" validate:"required,max=200"`
	Status          string  `json:"status" validate:"omitempty,oneof=Available Assigned InRepair Retired Lost"`
	AssignedUserID  *string `json:"assignedUserId"`
	WarrantyEndDate *string `json:"warrantyEndDate" validate:"omitempty,isodate"`
}

type UpdateWarrantyRequest struct {
	WarrantyEndDate *string `json:"warrantyEndDate" validate:"omitempty,isodate"` // null clears it
}

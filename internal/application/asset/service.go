package asset

import (
	"context"
	"fmt"
	"time"

	"github.com/iams-api/internal/domain"
	"github.com/iams-api/internal/pkg/id"
	"github.com/iams-api/internal/pkg/validate"
)

type Service interface {
	Create(ctx context.Context, tenantID string, req domain.CreateAssetRequest) (*domain.Asset, error)
	Get(ctx context.Context, tenantID, assetID string) (*domain.Asset, error)
	List(ctx context.Context, tenantID string) ([]domain.Asset, error)
	UpdateWarranty(ctx context.Context, tenantID, assetID string, end *time.Time) (*domain.Asset, error)
}

type assetStore interface {
	Put(ctx context.Context, a *domain.Asset) error
	Get(ctx context.Context, assetID string) (*domain.Asset, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Asset, error)
	SetWarranty(ctx context.Context, assetID string, end *time.Time, now time.Time) error
}

type service struct {
	repo assetStore
	now  func() time.Time
}

func NewService(repo assetStore) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Create(ctx context.Context, tenantID string, req domain.CreateAssetRequest) (*domain.Asset, error) {
	end, err := validate.Date(req.WarrantyEndDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	status := req.Status
	if status == "" {
		status = domain.AssetAvailable
		if req.AssignedUserID != nil && *req.AssignedUserID != "" {
			status = domain.AssetAssigned
		}
	}
	now := s.now().UTC()
	a := &domain.Asset{
		AssetID:         id.New(),
		TenantID:        tenantID,
		AssetTag:        req.AssetTag,
		Name:            req.Name,
		Status:          status,
		IsActive:        true,
		AssignedUserID:  req.AssignedUserID,
		WarrantyEndDate: end,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get hides assets of other tenants behind ErrNotFound.
func (s *service) Get(ctx context.Context, tenantID, assetID string) (*domain.Asset, error) {
	a, err := s.repo.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if a.TenantID != tenantID {
		return nil, fmt.Errorf("asset %s: %w", assetID, domain.ErrNotFound)
	}
	return a, nil
}

func (s *service) List(ctx context.Context, tenantID string) ([]domain.Asset, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

func (s *service) UpdateWarranty(ctx context.Context, tenantID, assetID string, end *time.Time) (*domain.Asset, error) {
	a, err := s.Get(ctx, tenantID, assetID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.repo.SetWarranty(ctx, assetID, end, now); err != nil {
		return nil, err
	}
	a.WarrantyEndDate = end
	a.UpdatedAt = now
	return a, nil
}

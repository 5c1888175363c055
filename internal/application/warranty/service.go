package warranty

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iams-api/internal/domain"
)

type Service interface {
	List(ctx context.Context, tenantID string, includeAcknowledged bool) ([]domain.WarrantyAlert, error)
	Acknowledge(ctx context.Context, alertID, tenantID, userID string) (*domain.WarrantyAlert, error)
	Scan(ctx context.Context) (ScanResult, error)
}

type alertReader interface {
	Get(ctx context.Context, alertID string) (*domain.WarrantyAlert, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.WarrantyAlert, error)
	Acknowledge(ctx context.Context, alertID, userID string, at time.Time) error
}

type service struct {
	repo    alertReader
	scanner *Scanner
	now     func() time.Time
}

func NewService(repo alertReader, scanner *Scanner) Service {
	return &service{repo: repo, scanner: scanner, now: time.Now}
}

// List returns the tenant's alerts, most urgent first.
func (s *service) List(ctx context.Context, tenantID string, includeAcknowledged bool) ([]domain.WarrantyAlert, error) {
	alerts, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.WarrantyAlert, 0, len(alerts))
	for _, a := range alerts {
		if !includeAcknowledged && a.Acknowledged() {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysRemaining < out[j].DaysRemaining })
	return out, nil
}

func (s *service) Acknowledge(ctx context.Context, alertID, tenantID, userID string) (*domain.WarrantyAlert, error) {
	a, err := s.repo.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if a.TenantID != tenantID {
		return nil, fmt.Errorf("warranty alert %s: %w", alertID, domain.ErrNotFound)
	}
	if a.Acknowledged() {
		return a, nil
	}
	at := s.now().UTC()
	if err := s.repo.Acknowledge(ctx, alertID, userID, at); err != nil {
		return nil, err
	}
	a.AcknowledgedAt = &at
	a.AcknowledgedBy = &userID
	return a, nil
}

// Scan runs one scanner cycle on demand.
func (s *service) Scan(ctx context.Context) (ScanResult, error) {
	if s.scanner == nil {
		return ScanResult{}, fmt.Errorf("scanner not configured: %w", domain.ErrConflict)
	}
	return s.scanner.RunOnce(ctx)
}

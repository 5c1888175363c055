package warranty

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iams-api/internal/application/notification"
	"github.com/iams-api/internal/domain"
	"github.com/iams-api/internal/infrastructure/metrics"
	"github.com/iams-api/internal/pkg/id"
)

const (
	DefaultScanInterval = 6 * time.Hour
	DefaultExpiringDays = 90
)

// ScanResult summarises the writes of one scan cycle.
type ScanResult struct {
	Scanned  int `json:"scanned"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Promoted int `json:"promoted"`
}

type assetSource interface {
	ListWarrantyTracked(ctx context.Context) ([]domain.Asset, error)
}

type alertStore interface {
	FindByAssetAndType(ctx context.Context, assetID, alertType string) (*domain.WarrantyAlert, error)
	Put(ctx context.Context, a *domain.WarrantyAlert) error
	UpdateDaysRemaining(ctx context.Context, alertID string, days int) error
	Delete(ctx context.Context, alertID string) error
}

type notifier interface {
	Create(ctx context.Context, in notification.CreateInput) (*domain.Notification, error)
}

// Scanner keeps warranty alerts in line with each asset's warranty end date.
type Scanner struct {
	assets   assetSource
	alerts   alertStore
	notifier notifier
	interval time.Duration
	window   int
	now      func() time.Time

	mu sync.Mutex // one cycle at a time: ticker and on-demand scans share it
}

type ScannerDeps struct {
	Assets       assetSource
	Alerts       alertStore
	Notifier     notifier // optional
	Interval     time.Duration
	ExpiringDays int
	Now          func() time.Time
}

func NewScanner(deps ScannerDeps) *Scanner {
	s := &Scanner{
		assets:   deps.Assets,
		alerts:   deps.Alerts,
		notifier: deps.Notifier,
		interval: deps.Interval,
		window:   deps.ExpiringDays,
		now:      deps.Now,
	}
	if s.interval <= 0 {
		s.interval = DefaultScanInterval
	}
	if s.window <= 0 {
		s.window = DefaultExpiringDays
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Run scans once immediately and then every interval until ctx is done.
// Cycle failures are logged; the next cycle runs on schedule.
func (s *Scanner) Run(ctx context.Context) {
	slog.Info("warranty scanner started", "interval", s.interval, "expiring_days", s.window)
	s.cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("warranty scanner stopped")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scanner) cycle(ctx context.Context) {
	start := time.Now()
	res, err := s.RunOnce(ctx)
	metrics.WarrantyScanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.WarrantyScans.WithLabelValues("error").Inc()
		slog.Error("warranty scan failed", "err", err)
		return
	}
	metrics.WarrantyScans.WithLabelValues("ok").Inc()
	slog.Info("warranty scan finished",
		"scanned", res.Scanned, "created", res.Created,
		"updated", res.Updated, "promoted", res.Promoted,
		"took", time.Since(start))
}

// RunOnce performs a single scan cycle. It stops at the first store error
// and returns the counts accumulated up to that point.
func (s *Scanner) RunOnce(ctx context.Context) (ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res ScanResult
	assets, err := s.assets.ListWarrantyTracked(ctx)
	if err != nil {
		return res, fmt.Errorf("list assets: %w", err)
	}
	today := truncateDay(s.now())
	for i := range assets {
		a := &assets[i]
		if !a.WarrantyTracked() {
			continue
		}
		res.Scanned++
		if err := s.scanAsset(ctx, a, today, &res); err != nil {
			return res, fmt.Errorf("asset %s: %w", a.AssetID, err)
		}
	}
	return res, nil
}

func (s *Scanner) scanAsset(ctx context.Context, a *domain.Asset, today time.Time, res *ScanResult) error {
	days := DaysRemaining(today, *a.WarrantyEndDate)
	alertType, ok := s.classify(days)
	if !ok {
		return nil
	}

	existing, err := s.alerts.FindByAssetAndType(ctx, a.AssetID, alertType)
	switch {
	case err == nil:
		if existing.Acknowledged() || existing.DaysRemaining == days {
			return nil
		}
		if err := s.alerts.UpdateDaysRemaining(ctx, existing.AlertID, days); err != nil {
			return fmt.Errorf("refresh alert: %w", err)
		}
		res.Updated++
		metrics.WarrantyAlertsWritten.WithLabelValues("updated").Inc()
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("find %s alert: %w", alertType, err)
	}

	promoted := false
	if alertType == domain.AlertExpired {
		stale, err := s.alerts.FindByAssetAndType(ctx, a.AssetID, domain.AlertExpiring)
		switch {
		case err == nil:
			if err := s.alerts.Delete(ctx, stale.AlertID); err != nil {
				return fmt.Errorf("delete expiring alert: %w", err)
			}
			promoted = true
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("find expiring alert: %w", err)
		}
	}

	alert := &domain.WarrantyAlert{
		AlertID:         id.New(),
		TenantID:        a.TenantID,
		AssetID:         a.AssetID,
		AlertType:       alertType,
		WarrantyEndDate: *a.WarrantyEndDate,
		DaysRemaining:   days,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.alerts.Put(ctx, alert); err != nil {
		return fmt.Errorf("insert %s alert: %w", alertType, err)
	}
	res.Created++
	metrics.WarrantyAlertsWritten.WithLabelValues("created").Inc()
	if promoted {
		res.Promoted++
		metrics.WarrantyAlertsWritten.WithLabelValues("promoted").Inc()
	}
	s.notify(ctx, a, alert)
	return nil
}

func (s *Scanner) classify(days int) (string, bool) {
	switch {
	case days < 0:
		return domain.AlertExpired, true
	case days <= s.window:
		return domain.AlertExpiring, true
	}
	return "", false
}

// notify tells the assigned user about a new alert. Failures are logged only;
// the alert row is already written.
func (s *Scanner) notify(ctx context.Context, a *domain.Asset, alert *domain.WarrantyAlert) {
	if s.notifier == nil || a.AssignedUserID == nil || *a.AssignedUserID == "" {
		return
	}
	in := notification.CreateInput{
		TenantID:          a.TenantID,
		UserID:            *a.AssignedUserID,
		Link:              ptr("/assets/" + a.AssetID),
		RelatedEntityType: ptr("Asset"),
		RelatedEntityID:   ptr(a.AssetID),
	}
	if alert.AlertType == domain.AlertExpired {
		in.Type = domain.NotificationError
		in.Title = "Warranty expired"
		in.Message = fmt.Sprintf("The warranty for %s (%s) expired %d day(s) ago.", a.Name, a.AssetTag, -alert.DaysRemaining)
	} else {
		in.Type = domain.NotificationWarning
		in.Title = "Warranty expiring soon"
		in.Message = fmt.Sprintf("The warranty for %s (%s) expires in %d day(s).", a.Name, a.AssetTag, alert.DaysRemaining)
	}
	if _, err := s.notifier.Create(ctx, in); err != nil {
		slog.Warn("warranty notification failed", "asset_id", a.AssetID, "user_id", in.UserID, "err", err)
	}
}

// DaysRemaining counts whole UTC calendar days from today to end.
// Negative once end has passed.
func DaysRemaining(today, end time.Time) int {
	return int(truncateDay(end).Sub(truncateDay(today)) / (24 * time.Hour))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "iams",
		Name:      "live_subscribers",
		Help:      "Users with an open live notification channel.",
	})

	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iams",
		Name:      "notifications_published_total",
		Help:      "Notifications handed to the live channel registry, by outcome.",
	}, []string{"outcome"}) // queued | no_subscriber

	NotificationsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "iams",
		Name:      "notifications_delivered_total",
		Help:      "Notifications written to a live stream.",
	})

	WarrantyScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iams",
		Name:      "warranty_scans_total",
		Help:      "Warranty scan cycles, by result.",
	}, []string{"result"}) // ok | error

	WarrantyAlertsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iams",
		Name:      "warranty_alerts_written_total",
		Help:      "Warranty alert rows written by the scanner, by action.",
	}, []string{"action"}) // created | updated | promoted

	WarrantyScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "iams",
		Name:      "warranty_scan_duration_seconds",
		Help:      "Duration of warranty scan cycles.",
		Buckets:   prometheus.DefBuckets,
	})
)

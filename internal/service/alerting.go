package service

import (
	"context"
	"encoding/json"
	"time"

	"go-kasir-ws/internal/events"
	"go-kasir-ws/internal/metrics"
	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"

	"github.com/rs/zerolog"
)

// JakartaLoc is the business time zone for timestamps and reporting periods.
var JakartaLoc *time.Location

func init() {
	var err error
	JakartaLoc, err = time.LoadLocation("Asia/Jakarta")
	if err != nil {
		// Fallback to UTC+7 if timezone data not available
		JakartaLoc = time.FixedZone("WIB", 7*60*60)
	}
}

const alertTimestampLayout = "2006-01-02 15:04:05 MST"

// Published alert severities.
const (
	SeverityCritical = "CRITICAL"
	SeverityLow      = "LOW"
)

// AlertEvent is the payload observers receive on the admin topic.
type AlertEvent struct {
	Type         string `json:"type"`
	Barcode      string `json:"barcode"`
	Name         string `json:"name"`
	Stock        int    `json:"stock"`
	MinimumStock int    `json:"minimumStock"`
	Status       string `json:"status"`
	Source       string `json:"source"`
	Timestamp    string `json:"timestamp"`
}

func NewAlertEvent(p *model.Product, source string, at time.Time) AlertEvent {
	status := SeverityLow
	if p.Stock == 0 {
		status = SeverityCritical
	}
	return AlertEvent{
		Type:         "stock_alert",
		Barcode:      p.Barcode,
		Name:         p.Name,
		Stock:        p.Stock,
		MinimumStock: p.MinimumStock,
		Status:       status,
		Source:       source,
		Timestamp:    at.In(JakartaLoc).Format(alertTimestampLayout),
	}
}

// thresholdEvaluator drives the per-product alert state machine inside a unit of work.
type thresholdEvaluator struct {
	now func() time.Time
}

// evaluate opens an alert when p is below minimum and resolves the open one when it
// is back at or above it. It returns an event for a NONE/RESOLVED -> ACTIVE move and
// once more when an active alert reaches zero stock.
func (e thresholdEvaluator) evaluate(ctx context.Context, alerts repository.StockAlertRepository, p *model.Product, status model.AlertStatus, source string) (*AlertEvent, error) {
	now := e.now()
	if !p.BelowMinimum() {
		resolved, err := alerts.Resolve(ctx, p.Barcode, now)
		if err != nil {
			return nil, err
		}
		if resolved {
			metrics.StockAlertsResolved.Inc()
		}
		return nil, nil
	}

	if p.Stock == 0 {
		status = model.AlertStatusCritical
	}
	opened, err := alerts.OpenIfAbsent(ctx, &model.StockAlert{
		Barcode:      p.Barcode,
		ProductName:  p.Name,
		CurrentStock: p.Stock,
		MinimumStock: p.MinimumStock,
		Status:       status,
		Source:       source,
	})
	if err != nil {
		return nil, err
	}
	if opened {
		metrics.StockAlertsOpened.WithLabelValues(source).Inc()
		ev := NewAlertEvent(p, source, now)
		return &ev, nil
	}

	escalated, err := alerts.Refresh(ctx, p.Barcode, p.Stock)
	if err != nil || !escalated {
		return nil, err
	}
	metrics.StockAlertsEscalated.WithLabelValues(source).Inc()
	ev := NewAlertEvent(p, source, now)
	return &ev, nil
}

// alertPublisher pushes committed alert events to the admin topic.
type alertPublisher struct {
	pub events.Publisher
	log zerolog.Logger
}

func (a alertPublisher) publish(evs ...AlertEvent) {
	for _, ev := range evs {
		payload, err := json.Marshal(ev)
		if err != nil {
			a.log.Error().Err(err).Str("barcode", ev.Barcode).Msg("marshal alert event")
			continue
		}
		a.pub.Publish(events.Message{Topic: events.TopicAdmin, Key: ev.Barcode, Payload: payload})
		a.log.Info().Str("barcode", ev.Barcode).Str("status", ev.Status).Int("stock", ev.Stock).
			Str("source", ev.Source).Msg("stock alert published")
	}
}

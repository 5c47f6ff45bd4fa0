package notify

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/hazardwatch/go-hazard-alerts/internal/geo"
	"github.com/hazardwatch/go-hazard-alerts/internal/models"
	"github.com/hazardwatch/go-hazard-alerts/internal/observability"
)

// severityRadiusKm is the geofence for located recipients. CRITICAL
// alerts bypass the filter entirely, so the 500 entry is the table's
// ceiling rather than an active cutoff.
var severityRadiusKm = map[models.Severity]float64{
	models.SeverityLow:      50,
	models.SeverityMedium:   100,
	models.SeverityHigh:     200,
	models.SeverityCritical: 500,
}

// Senders bundles the channel transports handed to the dispatcher. A nil
// sender disables that channel.
type Senders struct {
	Email EmailSender
	SMS   SMSSender
	Push  PushSender
}

// Dispatcher fans alerts out to recipients over their enabled channels.
// Dispatch never fails: every send error is logged with recipient and
// channel context and swallowed here.
type Dispatcher struct {
	registry    *Registry
	senders     Senders
	broadcaster *Broadcaster
	pool        *sendPool
	clock       clockwork.Clock
	metrics     *observability.Metrics
}

func NewDispatcher(registry *Registry, senders Senders, broadcaster *Broadcaster, metrics *observability.Metrics, clock clockwork.Clock, maxConcurrentSends int) *Dispatcher {
	return &Dispatcher{
		registry:    registry,
		senders:     senders,
		broadcaster: broadcaster,
		pool:        newSendPool(maxConcurrentSends),
		clock:       clock,
		metrics:     metrics,
	}
}

// Dispatch sends the alert to every registered recipient that passes the
// severity and location filter.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert) {
	recipients := make([]Recipient, 0)
	for _, rec := range d.registry.Snapshot() {
		if d.shouldNotify(&rec, alert) {
			recipients = append(recipients, rec)
		}
	}
	d.DispatchTo(ctx, alert, recipients)
}

// DispatchTo sends the alert to an explicit recipient list, skipping the
// registry filter. Used when the caller has already chosen the audience.
func (d *Dispatcher) DispatchTo(ctx context.Context, alert *models.Alert, recipients []Recipient) {
	if d.broadcaster != nil {
		d.broadcaster.Broadcast(alert)
	}

	if len(recipients) == 0 {
		slog.Warn("no recipients for alert",
			"alert_id", alert.ID, "category", alert.Category, "severity", alert.Severity)
		return
	}

	slog.Info("dispatching alert",
		"alert_id", alert.ID,
		"category", alert.Category,
		"severity", alert.Severity,
		"recipients", len(recipients))

	outcomes := d.pool.run(ctx, d.buildJobs(alert, recipients))

	sent := 0
	for _, o := range outcomes {
		if o.Err != nil {
			d.metrics.Deliveries.WithLabelValues(string(o.Channel), "error").Inc()
			slog.Error("notification send failed",
				"alert_id", alert.ID,
				"recipient", o.Recipient,
				"channel", o.Channel,
				"error", o.Err)
			continue
		}
		d.metrics.Deliveries.WithLabelValues(string(o.Channel), "success").Inc()
		sent++
	}

	slog.Info("dispatch complete",
		"alert_id", alert.ID, "attempts", len(outcomes), "sent", sent)
}

// shouldNotify applies the recipient filter:
//   - CRITICAL alerts are broadcast to everyone, distance ignored.
//   - Located recipients are notified within the severity radius.
//   - Unlocated recipients receive every alert.
func (d *Dispatcher) shouldNotify(rec *Recipient, alert *models.Alert) bool {
	if alert.Severity == models.SeverityCritical {
		return true
	}
	if rec.HomeLocation != nil {
		dist := geo.DistanceKm(*rec.HomeLocation, alert.Coordinates())
		radius, ok := severityRadiusKm[alert.Severity]
		if !ok {
			radius = 100
		}
		return dist <= radius
	}
	return true
}

func (d *Dispatcher) buildJobs(alert *models.Alert, recipients []Recipient) []sendJob {
	now := d.clock.Now()
	jobs := make([]sendJob, 0, len(recipients))

	for i := range recipients {
		rec := recipients[i]

		if d.senders.Email != nil && rec.HasChannel(ChannelEmail) && rec.Email != "" {
			to := rec.Email
			jobs = append(jobs, sendJob{
				recipient: rec.Name,
				channel:   ChannelEmail,
				send: func(ctx context.Context) error {
					return d.senders.Email.SendEmail(ctx, to, emailSubject(alert), emailHTML(alert, now), emailText(alert, now))
				},
			})
		}
		if d.senders.SMS != nil && rec.HasChannel(ChannelSMS) && rec.Phone != "" {
			to := rec.Phone
			jobs = append(jobs, sendJob{
				recipient: rec.Name,
				channel:   ChannelSMS,
				send: func(ctx context.Context) error {
					return d.senders.SMS.SendSMS(ctx, to, smsText(alert, now))
				},
			})
		}
		if d.senders.Push != nil && rec.HasChannel(ChannelPush) && rec.PushToken != "" {
			token := rec.PushToken
			jobs = append(jobs, sendJob{
				recipient: rec.Name,
				channel:   ChannelPush,
				send: func(ctx context.Context) error {
					return d.senders.Push.SendPush(ctx, token, alert.Title, alert.Message)
				},
			})
		}
	}
	return jobs
}

// Package expiration runs the daily sweep over subscription end dates:
// reminders 7 days ahead and on the last day, and the ACTIVE to EXPIRED
// transition once the plan has ended.
package expiration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clubebeneficios/clube-api/internal/domain/notification"
	"github.com/clubebeneficios/clube-api/internal/domain/plan"
	"github.com/clubebeneficios/clube-api/internal/domain/subscriber"
	"github.com/clubebeneficios/clube-api/internal/pkg/clock"
	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/events"
	"github.com/clubebeneficios/clube-api/internal/pkg/metrics"
)

var ErrSweepRunning = errorhandler.New(errorhandler.KindConflict, "SWEEP_RUNNING", "expiration sweep already running")

// Subscribers is what the sweep reads and transitions.
type Subscribers interface {
	ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]subscriber.Subscriber, error)
	ListActiveEndedBefore(ctx context.Context, before time.Time) ([]subscriber.Subscriber, error)
	Expire(ctx context.Context, id uuid.UUID, before time.Time) (bool, error)
}

// Notifier emits the lifecycle reminders. Each call reports whether a
// notification was actually emitted.
type Notifier interface {
	NotifyExpiringSoon(ctx context.Context, rcpt notification.Recipient) (bool, error)
	NotifyExpiringToday(ctx context.Context, rcpt notification.Recipient) (bool, error)
	NotifyExpired(ctx context.Context, rcpt notification.Recipient) (bool, error)
}

// Plans resolves plan names for the message text.
type Plans interface {
	GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
}

// Report summarizes one run.
type Report struct {
	ExpiringSoon  int       `json:"expiring_soon"`
	ExpiringToday int       `json:"expiring_today"`
	Expired       int       `json:"expired"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
	Today         string    `json:"today"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Sweep is the expiration job.
type Sweep struct {
	subscribers Subscribers
	notifier    Notifier
	plans       Plans
	events      events.Publisher
	locker      Locker
	clock       clock.Clock
	loc         *time.Location
}

// Config wires the optional parts of the sweep.
type Config struct {
	Plans    Plans
	Events   events.Publisher
	Locker   Locker
	Clock    clock.Clock
	Location *time.Location
}

// NewSweep creates the sweep
func NewSweep(subscribers Subscribers, notifier Notifier, cfg Config) *Sweep {
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Sweep{
		subscribers: subscribers,
		notifier:    notifier,
		plans:       cfg.Plans,
		events:      cfg.Events,
		locker:      cfg.Locker,
		clock:       cfg.Clock,
		loc:         cfg.Location,
	}
}

// Run executes one sweep. Per-subscriber failures are counted in the
// report and do not stop the run; only failing to list subscribers does.
func (s *Sweep) Run(ctx context.Context) (*Report, error) {
	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx)
		if err != nil {
			metrics.SweepRuns.WithLabelValues("failed").Inc()
			return nil, err
		}
		if !ok {
			metrics.SweepRuns.WithLabelValues("locked").Inc()
			return nil, ErrSweepRunning
		}
		defer release()
	}

	report, err := s.run(ctx)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("Expiration sweep failed")
		return nil, err
	}

	metrics.SweepRuns.WithLabelValues("ok").Inc()
	log.Info().
		Str("today", report.Today).
		Int("expiring_soon", report.ExpiringSoon).
		Int("expiring_today", report.ExpiringToday).
		Int("expired", report.Expired).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Expiration sweep finished")
	return report, nil
}

func (s *Sweep) run(ctx context.Context) (*Report, error) {
	now := s.clock.Now()
	today := clock.StartOfDay(now, s.loc)
	report := &Report{Today: today.Format("2006-01-02"), StartedAt: now}
	names := map[uuid.UUID]string{}

	soon, err := s.subscribers.ListActiveEndingBetween(ctx, today.AddDate(0, 0, 7), today.AddDate(0, 0, 8))
	if err != nil {
		return nil, err
	}
	for i := range soon {
		s.remind(ctx, report, &soon[i], names, notification.TypeExpiringSoon, &report.ExpiringSoon, s.notifier.NotifyExpiringSoon)
	}

	endingToday, err := s.subscribers.ListActiveEndingBetween(ctx, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	for i := range endingToday {
		s.remind(ctx, report, &endingToday[i], names, notification.TypeExpiringToday, &report.ExpiringToday, s.notifier.NotifyExpiringToday)
	}

	ended, err := s.subscribers.ListActiveEndedBefore(ctx, today)
	if err != nil {
		return nil, err
	}
	for i := range ended {
		s.expire(ctx, report, &ended[i], today, names)
	}

	report.FinishedAt = s.clock.Now()
	return report, nil
}

type notifyFunc func(ctx context.Context, rcpt notification.Recipient) (bool, error)

func (s *Sweep) remind(ctx context.Context, report *Report, sub *subscriber.Subscriber, names map[uuid.UUID]string, t notification.Type, counter *int, notify notifyFunc) {
	emitted, err := notify(ctx, notification.SubscriberRecipient(sub, s.planName(ctx, sub, names)))
	switch {
	case err != nil:
		report.Failed++
		log.Error().Err(err).Str("subscriber_id", sub.ID.String()).Str("type", string(t)).Msg("Sweep notification failed")
	case emitted:
		*counter++
		metrics.SweepNotifications.WithLabelValues(string(t)).Inc()
	default:
		report.Skipped++
	}
}

func (s *Sweep) expire(ctx context.Context, report *Report, sub *subscriber.Subscriber, today time.Time, names map[uuid.UUID]string) {
	// Notify before the transition: once EXPIRED the subscriber leaves the
	// candidate list, so a notification lost after it would never be retried.
	// The dedup rules keep a retried run from sending it twice.
	emitted, err := s.notifier.NotifyExpired(ctx, notification.SubscriberRecipient(sub, s.planName(ctx, sub, names)))
	if err != nil {
		report.Failed++
		log.Error().Err(err).Str("subscriber_id", sub.ID.String()).Msg("Expired notification failed")
		return
	}
	if emitted {
		metrics.SweepNotifications.WithLabelValues(string(notification.TypeExpired)).Inc()
	}

	ok, err := s.subscribers.Expire(ctx, sub.ID, today)
	if err != nil {
		report.Failed++
		log.Error().Err(err).Str("subscriber_id", sub.ID.String()).Msg("Failed to expire subscription")
		return
	}
	if !ok {
		// Already handled by a concurrent run.
		report.Skipped++
		return
	}
	report.Expired++
	sub.Status = subscriber.StatusExpired

	if s.events != nil {
		err := s.events.Publish(ctx, events.TypeSubscriptionExpired, sub.ID.String(), map[string]interface{}{
			"subscriberId": sub.ID,
			"planEndDate":  sub.PlanEndDate,
		})
		if err != nil {
			metrics.DeliveryFailures.WithLabelValues("events").Inc()
			errorhandler.LogDelivery(ctx, "events", err, map[string]string{"subscriber_id": sub.ID.String()})
		}
	}
}

func (s *Sweep) planName(ctx context.Context, sub *subscriber.Subscriber, names map[uuid.UUID]string) string {
	if s.plans == nil || !sub.PlanID.Valid {
		return ""
	}
	if name, ok := names[sub.PlanID.UUID]; ok {
		return name
	}
	name := ""
	if p, err := s.plans.GetByID(ctx, sub.PlanID.UUID); err == nil {
		name = p.Name
	}
	names[sub.PlanID.UUID] = name
	return name
}

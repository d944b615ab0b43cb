package service

import (
	"context"
	"fmt"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/infra/observability"
	"github.com/caribe/factoring-bfa-go/internal/ledger"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Reminders: /v1/reminders
// ============================================================

func (s *FactoringService) ListReminders(ctx context.Context, actor domain.Actor) (out []domain.Reminder, err error) {
	_, span := tracer.Start(ctx, "FactoringService.ListReminders")
	defer span.End()
	defer s.observe("list_reminders", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return nil, err
	}
	return ledger.ActiveReminders(s.Snapshot(), s.today(), s.reminderWindow), nil
}

// DismissReminder hides the reminder of an operation for good.
func (s *FactoringService) DismissReminder(ctx context.Context, actor domain.Actor, operationID int) (err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.DismissReminder")
	defer span.End()
	span.SetAttributes(attribute.Int("operation.id", operationID))
	defer s.observe("dismiss_reminder", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionDismissReminder); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, added, err := ledger.DismissReminder(s.state, operationID)
	if err != nil || !added {
		return err
	}
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.metrics.IncrMutation("reminder", "dismiss")
	observability.WithTrace(ctx, s.logger).Info("reminder dismissed",
		zap.Int("operation_id", operationID),
		zap.Int("user_id", actor.UserID),
	)
	return nil
}

// ============================================================
// Dashboard & reports: /v1/dashboard, /v1/reports
// ============================================================

// Dashboard returns the control panel summary for today. Results are
// memoized per snapshot version and day.
func (s *FactoringService) Dashboard(ctx context.Context, actor domain.Actor) (out domain.Dashboard, err error) {
	_, span := tracer.Start(ctx, "FactoringService.Dashboard")
	defer span.End()
	defer s.observe("dashboard", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return domain.Dashboard{}, err
	}

	st, version := s.versioned()
	today := s.today()
	compute := func() (domain.Dashboard, error) { return ledger.BuildDashboard(st, today), nil }
	if s.dashboards == nil {
		return compute()
	}

	key := fmt.Sprintf("v%d:%s", version, today)
	out, hit, err := s.dashboards.GetOrCompute(key, compute)
	s.recordCache("dashboard", hit)
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	return out, err
}

// Report builds the period report. A zero range means the current month;
// a range with only one end set is rejected.
func (s *FactoringService) Report(ctx context.Context, actor domain.Actor, rng domain.ReportRange) (out domain.Report, err error) {
	_, span := tracer.Start(ctx, "FactoringService.Report")
	defer span.End()
	defer s.observe("report", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return domain.Report{}, err
	}

	today := s.today()
	switch {
	case rng.Start.IsZero() && rng.End.IsZero():
		rng = ledger.CurrentMonth(today)
	case rng.Start.IsZero():
		return domain.Report{}, &domain.ErrValidation{Field: "start", Message: "data inicial obrigatória"}
	case rng.End.IsZero():
		return domain.Report{}, &domain.ErrValidation{Field: "end", Message: "data final obrigatória"}
	case rng.End.Before(rng.Start):
		return domain.Report{}, &domain.ErrValidation{Field: "end", Message: "data final anterior à inicial"}
	}
	span.SetAttributes(attribute.String("report.start", rng.Start.String()), attribute.String("report.end", rng.End.String()))

	st, version := s.versioned()
	compute := func() (domain.Report, error) { return ledger.BuildReport(st, rng, today), nil }
	if s.reports == nil {
		return compute()
	}

	key := fmt.Sprintf("v%d:%s:%s:%s", version, today, rng.Start, rng.End)
	out, hit, err := s.reports.GetOrCompute(key, compute)
	s.recordCache("report", hit)
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	return out, err
}

// ============================================================
// Interest calculator: /v1/calculator
// ============================================================

// Calculate runs the interest calculator, prefilled from a client or an
// open operation when the input names one.
func (s *FactoringService) Calculate(ctx context.Context, actor domain.Actor, in domain.InterestInput) (out domain.InterestResult, err error) {
	_, span := tracer.Start(ctx, "FactoringService.Calculate")
	defer span.End()
	defer s.observe("calculate", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return domain.InterestResult{}, err
	}
	return ledger.Calculate(s.Snapshot(), in)
}

// ============================================================
// Metrics: /v1/metrics/summary
// ============================================================

func (s *FactoringService) MetricsSummary(ctx context.Context, actor domain.Actor) (*domain.MetricsSummary, error) {
	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return nil, err
	}
	return s.metrics.GetSummary(), nil
}

func (s *FactoringService) versioned() (domain.State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.version
}

func (s *FactoringService) recordCache(name string, hit bool) {
	if hit {
		s.metrics.IncrCacheHit(name)
		return
	}
	s.metrics.IncrCacheMiss(name)
}

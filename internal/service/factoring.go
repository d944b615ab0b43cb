// Package service provides the business logic layer (use cases).
// FactoringService owns the back-office snapshot: it authorizes the actor,
// applies ledger rules, persists the collections that changed and only
// then publishes the new snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/infra/observability"
	"github.com/caribe/factoring-bfa-go/internal/ledger"
	"github.com/caribe/factoring-bfa-go/internal/port"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/factoring")

// AdminSeed is the administrator created when no user exists yet.
type AdminSeed struct {
	Nome     string
	Email    string
	Password string
}

// Options wires a FactoringService.
type Options struct {
	Store      port.StateStore
	Dashboards port.Cache[domain.Dashboard]
	Reports    port.Cache[domain.Report]
	Metrics    *observability.Metrics
	Logger     *zap.Logger

	Clock              domain.Clock
	Location           *time.Location
	ReminderWindowDays int
	Admin              AdminSeed
}

// FactoringService is the single writer of the application state.
// Reads share the current snapshot; mutations are serialized by mu.
type FactoringService struct {
	mu      sync.RWMutex
	state   domain.State
	version uint64

	store      port.StateStore
	dashboards port.Cache[domain.Dashboard]
	reports    port.Cache[domain.Report]
	metrics    *observability.Metrics
	logger     *zap.Logger
	validate   *validator.Validate

	clock          domain.Clock
	loc            *time.Location
	reminderWindow int
	admin          AdminSeed
}

// NewFactoringService creates the service with an empty snapshot. Call
// Load before serving requests.
func NewFactoringService(opts Options) *FactoringService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	window := opts.ReminderWindowDays
	if window <= 0 {
		window = ledger.DefaultReminderWindowDays
	}

	return &FactoringService{
		store:          opts.Store,
		dashboards:     opts.Dashboards,
		reports:        opts.Reports,
		metrics:        metrics,
		logger:         logger,
		validate:       newValidator(),
		clock:          opts.Clock,
		loc:            loc,
		reminderWindow: window,
		admin:          opts.Admin,
	}
}

// ============================================================
// Startup
// ============================================================

// Load reads every collection from the store, seeds the administrator
// when there are no users and runs the due-date pass once. Whatever that
// changes is persisted before Load returns.
func (s *FactoringService) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "FactoringService.Load")
	defer span.End()
	span.SetAttributes(attribute.String("storage.backend", s.store.Name()))

	raws := make([][]byte, len(domain.AllKeys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range domain.AllKeys {
		g.Go(func() error {
			raw, err := s.store.Load(gctx, key)
			if err != nil {
				return fmt.Errorf("load %s: %w", key, err)
			}
			raws[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.IncrStoreError(s.store.Name())
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("state load failed", zap.String("backend", s.store.Name()), zap.Error(err))
		return err
	}

	var loaded domain.State
	for i, key := range domain.AllKeys {
		if err := decodeKey(&loaded, key, raws[i]); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = loaded

	next := loaded
	if len(next.Users) == 0 && s.admin.Email != "" {
		hash, err := HashPassword(s.admin.Password)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		seeded, admin, err := ledger.AddUser(next, domain.NewUser{
			Nome:  s.admin.Nome,
			Email: s.admin.Email,
			Papel: domain.RoleAdministrador,
		}, hash)
		if err != nil {
			return fmt.Errorf("seed administrator: %w", err)
		}
		next = seeded
		s.logger.Info("administrator seeded", zap.Int("user_id", admin.ID), zap.String("email", admin.Email))
	}

	today := s.today()
	if ops, changed := ledger.RefreshOverdue(next.Operations, today); changed {
		next.Operations = ops
	}

	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.logger.Info("state loaded",
		zap.String("backend", s.store.Name()),
		zap.Int("clients", len(s.state.Clients)),
		zap.Int("operations", len(s.state.Operations)),
		zap.Int("receipts", len(s.state.Receipts)),
		zap.Int("users", len(s.state.Users)),
		zap.String("today", today.String()),
	)
	return nil
}

// Ready reports whether the backing store answers.
func (s *FactoringService) Ready(ctx context.Context) error {
	if p, ok := s.store.(port.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Snapshot returns the current state. The slices are shared and must be
// treated as read-only.
func (s *FactoringService) Snapshot() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Today is the current calendar day in the configured time zone.
func (s *FactoringService) Today() domain.Date {
	return s.today()
}

func (s *FactoringService) today() domain.Date {
	return s.clock.Today(s.loc)
}

// ============================================================
// Commit
// ============================================================

// commit persists every collection that differs between the current
// snapshot and next, then swaps next in. When a save fails the current
// snapshot is kept. Callers must hold mu.
func (s *FactoringService) commit(ctx context.Context, next domain.State) error {
	ctx, span := tracer.Start(ctx, "FactoringService.commit")
	defer span.End()

	var saved []string
	for _, key := range domain.AllKeys {
		before, err := encodeKey(s.state, key)
		if err != nil {
			return err
		}
		after, err := encodeKey(next, key)
		if err != nil {
			return err
		}
		if string(before) == string(after) {
			continue
		}
		if err := s.store.Save(ctx, key, after); err != nil {
			s.metrics.IncrStoreError(s.store.Name())
			span.SetStatus(codes.Error, err.Error())
			observability.WithTrace(ctx, s.logger).Error("state save failed",
				zap.String("backend", s.store.Name()),
				zap.String("key", key),
				zap.Strings("saved", saved),
				zap.Error(err),
			)
			return storeError(s.store.Name(), err)
		}
		saved = append(saved, key)
	}
	if len(saved) == 0 {
		return nil
	}

	s.recordTransitions(s.state.Operations, next.Operations)
	s.state = next
	s.version++
	span.SetAttributes(attribute.StringSlice("storage.keys", saved))
	return nil
}

func (s *FactoringService) recordTransitions(before, after []domain.Operation) {
	prev := make(map[int]domain.OperationStatus, len(before))
	for _, op := range before {
		prev[op.ID] = op.Status
	}
	for _, op := range after {
		if from, ok := prev[op.ID]; ok && from != op.Status {
			s.metrics.IncrStatusTransition(from, op.Status)
		}
	}
}

func storeError(backend string, err error) error {
	var ext *domain.ErrExternalService
	var open *domain.ErrCircuitOpen
	if errors.As(err, &ext) || errors.As(err, &open) {
		return err
	}
	return &domain.ErrExternalService{Service: backend, Err: err}
}

// ============================================================
// Helpers
// ============================================================

func (s *FactoringService) authorize(actor domain.Actor, action domain.Action) error {
	if !actor.Role.Can(action) {
		s.logger.Debug("action denied",
			zap.Int("user_id", actor.UserID),
			zap.String("role", string(actor.Role)),
			zap.String("action", string(action)),
		)
		return &domain.ErrForbidden{Action: string(action), Role: string(actor.Role)}
	}
	return nil
}

// observe records the duration and outcome of a service call. It is
// deferred with a pointer to the caller's named error result.
func (s *FactoringService) observe(operation string, start time.Time, err *error) {
	s.metrics.RecordRequestDuration(operation, time.Since(start))
	if err != nil && *err != nil {
		s.metrics.IncrRequest("error")
		return
	}
	s.metrics.IncrRequest("success")
}

// rejected logs an input the ledger or the validator refused.
func (s *FactoringService) rejected(ctx context.Context, operation string, err error) {
	var ve *domain.ErrValidation
	if errors.As(err, &ve) {
		observability.WithTrace(ctx, s.logger).Debug("input rejected",
			zap.String("operation", operation),
			zap.String("field", ve.Field),
			zap.String("reason", ve.Message),
		)
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs the struct tags and reports the first failure as a
// validation error named after the JSON field.
func (s *FactoringService) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		return &domain.ErrValidation{Field: fe.Field(), Message: validationMessage(fe)}
	}
	return &domain.ErrValidation{Field: "body", Message: err.Error()}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "email":
		return "email inválido"
	case "oneof":
		return "valor deve ser um de: " + fe.Param()
	case "gt":
		return "valor deve ser maior que " + fe.Param()
	case "gte":
		return "valor deve ser maior ou igual a " + fe.Param()
	}
	return "valor inválido (" + fe.Tag() + ")"
}

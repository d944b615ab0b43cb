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
// Clients: /v1/clients
// ============================================================

func (s *FactoringService) ListClients(ctx context.Context, actor domain.Actor) (out []domain.ClientWithOperationCount, err error) {
	_, span := tracer.Start(ctx, "FactoringService.ListClients")
	defer span.End()
	defer s.observe("list_clients", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return nil, err
	}
	return ledger.ClientsWithCounts(s.Snapshot()), nil
}

func (s *FactoringService) GetClient(ctx context.Context, actor domain.Actor, id int) (domain.Client, error) {
	_, span := tracer.Start(ctx, "FactoringService.GetClient")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return domain.Client{}, err
	}
	c, ok := s.Snapshot().FindClient(id)
	if !ok {
		return domain.Client{}, &domain.ErrNotFound{Resource: "client", ID: fmt.Sprint(id)}
	}
	return c, nil
}

// ClientStats returns the exposure summary shown on the client detail page.
func (s *FactoringService) ClientStats(ctx context.Context, actor domain.Actor, id int) (domain.ClientStats, error) {
	_, span := tracer.Start(ctx, "FactoringService.ClientStats")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return domain.ClientStats{}, err
	}
	return ledger.ClientStatsFor(s.Snapshot(), id)
}

func (s *FactoringService) CreateClient(ctx context.Context, actor domain.Actor, in domain.NewClient) (c domain.Client, err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.CreateClient")
	defer span.End()
	defer s.observe("create_client", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionManageClients); err != nil {
		return domain.Client{}, err
	}
	if err := s.check(in); err != nil {
		s.rejected(ctx, "create_client", err)
		return domain.Client{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, c, err := ledger.AddClient(s.state, in, s.now())
	if err != nil {
		s.rejected(ctx, "create_client", err)
		return domain.Client{}, err
	}
	if err := s.commit(ctx, next); err != nil {
		return domain.Client{}, err
	}

	s.metrics.IncrMutation("client", "create")
	observability.WithTrace(ctx, s.logger).Info("client created",
		zap.Int("client_id", c.ID),
		zap.Int("user_id", actor.UserID),
	)
	return c, nil
}

func (s *FactoringService) UpdateClient(ctx context.Context, actor domain.Actor, id int, in domain.NewClient) (c domain.Client, err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.UpdateClient")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))
	defer s.observe("update_client", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionManageClients); err != nil {
		return domain.Client{}, err
	}
	if err := s.check(in); err != nil {
		s.rejected(ctx, "update_client", err)
		return domain.Client{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, c, err := ledger.UpdateClient(s.state, id, in)
	if err != nil {
		s.rejected(ctx, "update_client", err)
		return domain.Client{}, err
	}
	if err := s.commit(ctx, next); err != nil {
		return domain.Client{}, err
	}

	s.metrics.IncrMutation("client", "update")
	observability.WithTrace(ctx, s.logger).Info("client updated",
		zap.Int("client_id", id),
		zap.Int("user_id", actor.UserID),
	)
	return c, nil
}

// DeleteClient removes a client with its operations and their receipts.
// Unknown ids succeed without changes.
func (s *FactoringService) DeleteClient(ctx context.Context, actor domain.Actor, id int) (err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.DeleteClient")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))
	defer s.observe("delete_client", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionManageClients); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed := ledger.DeleteClient(s.state, id)
	if !removed {
		return nil
	}
	before := len(s.state.Operations)
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.metrics.IncrMutation("client", "delete")
	observability.WithTrace(ctx, s.logger).Info("client deleted",
		zap.Int("client_id", id),
		zap.Int("operations_removed", before-len(next.Operations)),
		zap.Int("user_id", actor.UserID),
	)
	return nil
}

func (s *FactoringService) now() time.Time {
	if s.clock != nil {
		return s.clock().In(s.loc)
	}
	return time.Now().In(s.loc)
}

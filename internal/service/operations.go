package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/infra/observability"
	"github.com/caribe/factoring-bfa-go/internal/ledger"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OperationFilter narrows ListOperations. Zero values match everything.
type OperationFilter struct {
	ClientID int
	Status   domain.OperationStatus
}

// ============================================================
// Operations: /v1/operations
// ============================================================

func (s *FactoringService) ListOperations(ctx context.Context, actor domain.Actor, f OperationFilter) (out []domain.Operation, err error) {
	_, span := tracer.Start(ctx, "FactoringService.ListOperations")
	defer span.End()
	defer s.observe("list_operations", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: fmt.Sprintf("status inválido: %q", f.Status)}
	}

	out = []domain.Operation{}
	for _, op := range s.Snapshot().Operations {
		if f.ClientID != 0 && op.ClientID != f.ClientID {
			continue
		}
		if f.Status != "" && op.Status != f.Status {
			continue
		}
		out = append(out, op)
	}
	return out, nil
}

// GetOperation returns an operation with its outstanding balance.
func (s *FactoringService) GetOperation(ctx context.Context, actor domain.Actor, id int) (OperationDetail, error) {
	_, span := tracer.Start(ctx, "FactoringService.GetOperation")
	defer span.End()
	span.SetAttributes(attribute.Int("operation.id", id))

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return OperationDetail{}, err
	}
	st := s.Snapshot()
	op, ok := st.FindOperation(id)
	if !ok {
		return OperationDetail{}, &domain.ErrNotFound{Resource: "operation", ID: fmt.Sprint(id)}
	}
	receipts := slices.Clone(st.ReceiptsFor(id))
	if receipts == nil {
		receipts = []domain.Receipt{}
	}
	return OperationDetail{
		Operation:   op,
		Outstanding: ledger.Outstanding(op, receipts),
		Receipts:    receipts,
	}, nil
}

// OperationDetail is an operation with the receipts registered against it.
type OperationDetail struct {
	domain.Operation
	Outstanding domain.OutstandingBalance `json:"outstanding"`
	Receipts    []domain.Receipt          `json:"receipts"`
}

// PreviewOperation computes the net value of a prospective title with
// the same rule creation uses.
func (s *FactoringService) PreviewOperation(ctx context.Context, actor domain.Actor, nominal, taxa float64) (domain.OperationPreview, error) {
	_, span := tracer.Start(ctx, "FactoringService.PreviewOperation")
	defer span.End()

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return domain.OperationPreview{}, err
	}
	return ledger.Preview(nominal, taxa)
}

func (s *FactoringService) CreateOperation(ctx context.Context, actor domain.Actor, in domain.NewOperation) (op domain.Operation, err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.CreateOperation")
	defer span.End()
	defer s.observe("create_operation", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionManageOps); err != nil {
		return domain.Operation{}, err
	}
	if err := s.check(in); err != nil {
		s.rejected(ctx, "create_operation", err)
		return domain.Operation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, op, err := ledger.CreateOperation(s.state, in)
	if err != nil {
		s.rejected(ctx, "create_operation", err)
		return domain.Operation{}, err
	}
	if err := s.commit(ctx, next); err != nil {
		return domain.Operation{}, err
	}

	s.metrics.IncrMutation("operation", "create")
	observability.WithTrace(ctx, s.logger).Info("operation created",
		zap.Int("operation_id", op.ID),
		zap.Int("client_id", op.ClientID),
		zap.String("type", string(op.Type)),
		zap.Float64("nominal_value", op.NominalValue),
		zap.Float64("net_value", op.NetValue),
	)
	return op, nil
}

// DeleteOperation removes an operation and its receipts. Unknown ids
// succeed without changes.
func (s *FactoringService) DeleteOperation(ctx context.Context, actor domain.Actor, id int) (err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.DeleteOperation")
	defer span.End()
	span.SetAttributes(attribute.Int("operation.id", id))
	defer s.observe("delete_operation", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionManageOps); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed := ledger.DeleteOperation(s.state, id)
	if !removed {
		return nil
	}
	receiptsRemoved := len(s.state.Receipts) - len(next.Receipts)
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.metrics.IncrMutation("operation", "delete")
	observability.WithTrace(ctx, s.logger).Info("operation deleted",
		zap.Int("operation_id", id),
		zap.Int("receipts_removed", receiptsRemoved),
	)
	return nil
}

// SetOperationStatus is the manual status override.
func (s *FactoringService) SetOperationStatus(ctx context.Context, actor domain.Actor, id int, status domain.OperationStatus) (op domain.Operation, err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.SetOperationStatus")
	defer span.End()
	span.SetAttributes(attribute.Int("operation.id", id), attribute.String("operation.status", string(status)))
	defer s.observe("set_operation_status", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionOverrideStatus); err != nil {
		return domain.Operation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, _ := s.state.FindOperation(id)
	next, op, err := ledger.SetOperationStatus(s.state, id, status)
	if err != nil {
		s.rejected(ctx, "set_operation_status", err)
		return domain.Operation{}, err
	}
	if err := s.commit(ctx, next); err != nil {
		return domain.Operation{}, err
	}

	s.metrics.IncrMutation("operation", "status")
	observability.WithTrace(ctx, s.logger).Info("operation status overridden",
		zap.Int("operation_id", id),
		zap.String("from", string(previous.Status)),
		zap.String("to", string(op.Status)),
		zap.Int("user_id", actor.UserID),
	)
	return op, nil
}

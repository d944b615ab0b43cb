package service

import (
	"context"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/infra/observability"
	"github.com/caribe/factoring-bfa-go/internal/ledger"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Receipts: /v1/receipts
// ============================================================

// ListReceipts returns receipts newest first. A non-zero operationID
// restricts the list to that operation.
func (s *FactoringService) ListReceipts(ctx context.Context, actor domain.Actor, operationID int) (out []domain.Receipt, err error) {
	_, span := tracer.Start(ctx, "FactoringService.ListReceipts")
	defer span.End()
	defer s.observe("list_receipts", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return nil, err
	}
	return ledger.ListReceipts(s.Snapshot(), operationID), nil
}

// SuggestAllocation proposes the principal and interest split for a
// receipt of total against an operation.
func (s *FactoringService) SuggestAllocation(ctx context.Context, actor domain.Actor, operationID int, total float64, interestOnly bool) (domain.Allocation, error) {
	_, span := tracer.Start(ctx, "FactoringService.SuggestAllocation")
	defer span.End()
	span.SetAttributes(attribute.Int("operation.id", operationID), attribute.Bool("interest_only", interestOnly))

	if err := s.authorize(actor, domain.ActionRead); err != nil {
		return domain.Allocation{}, err
	}
	return ledger.SuggestAllocation(s.Snapshot(), operationID, total, interestOnly)
}

// RegisterReceipt books a payment. The operation is closed when its
// receipts reach the nominal value.
func (s *FactoringService) RegisterReceipt(ctx context.Context, actor domain.Actor, in domain.NewReceipt) (r domain.Receipt, err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.RegisterReceipt")
	defer span.End()
	span.SetAttributes(attribute.Int("operation.id", in.OperationID))
	defer s.observe("register_receipt", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionManageReceipts); err != nil {
		return domain.Receipt{}, err
	}
	if err := s.check(in); err != nil {
		s.rejected(ctx, "register_receipt", err)
		return domain.Receipt{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, r, err := ledger.RegisterReceipt(s.state, in)
	if err != nil {
		s.rejected(ctx, "register_receipt", err)
		return domain.Receipt{}, err
	}
	if err := s.commit(ctx, next); err != nil {
		return domain.Receipt{}, err
	}

	op, _ := s.state.FindOperation(r.OperationID)
	s.metrics.IncrMutation("receipt", "create")
	observability.WithTrace(ctx, s.logger).Info("receipt registered",
		zap.Int("receipt_id", r.ID),
		zap.Int("operation_id", r.OperationID),
		zap.Float64("total", r.ValorTotalRecebido),
		zap.String("forma_pagamento", string(r.FormaPagamento)),
		zap.String("operation_status", string(op.Status)),
	)
	return r, nil
}

// DeleteReceipt removes a receipt, reopening its operation when it no
// longer covers the nominal value. Unknown ids succeed without changes.
func (s *FactoringService) DeleteReceipt(ctx context.Context, actor domain.Actor, id int) (err error) {
	ctx, span := tracer.Start(ctx, "FactoringService.DeleteReceipt")
	defer span.End()
	span.SetAttributes(attribute.Int("receipt.id", id))
	defer s.observe("delete_receipt", time.Now(), &err)

	if err := s.authorize(actor, domain.ActionManageReceipts); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, _ := s.state.FindReceipt(id)
	next, removed := ledger.DeleteReceipt(s.state, id, s.today())
	if !removed {
		return nil
	}
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	op, _ := s.state.FindOperation(r.OperationID)
	s.metrics.IncrMutation("receipt", "delete")
	observability.WithTrace(ctx, s.logger).Info("receipt deleted",
		zap.Int("receipt_id", id),
		zap.Int("operation_id", r.OperationID),
		zap.String("operation_status", string(op.Status)),
	)
	return nil
}

package ledger

import (
	"fmt"
	"math"
	"sort"

	"github.com/caribe/factoring-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

// RegisterReceipt records a payment against an existing operation and
// closes the operation when the receipts reach its nominal value.
//
// The split between principal and interest comes from the caller but must
// partition the total and must not push cumulative principal past the net
// value, nor cumulative interest past (nominal - net). An interest-only
// receipt books the whole amount as interest and skips the interest cap.
func RegisterReceipt(s domain.State, in domain.NewReceipt) (domain.State, domain.Receipt, error) {
	op, ok := s.FindOperation(in.OperationID)
	if !ok {
		return s, domain.Receipt{}, invalid("operationId", fmt.Sprintf("operação %d não encontrada", in.OperationID))
	}
	if err := validateReceipt(op, s.ReceiptsFor(op.ID), in); err != nil {
		return s, domain.Receipt{}, err
	}

	id := nextID(s.Sequences.Receipts, s.Receipts, func(r domain.Receipt) int { return r.ID })
	r := domain.Receipt{
		ID:                 id,
		OperationID:        op.ID,
		DataRecebimento:    in.DataRecebimento,
		ValorTotalRecebido: in.ValorTotalRecebido,
		ValorPrincipalPago: in.ValorPrincipalPago,
		ValorJurosPago:     in.ValorJurosPago,
		FormaPagamento:     in.FormaPagamento,
	}
	s.Receipts = prepend(s.Receipts, r)
	s.Sequences.Receipts = id

	// Re-read the receipt set that now includes r.
	if op.Status != domain.StatusPago && fullyPaid(op, s.ReceiptsFor(op.ID)) {
		s, _ = withStatus(s, op.ID, domain.StatusPago)
	}
	return s, r, nil
}

func validateReceipt(op domain.Operation, prior []domain.Receipt, in domain.NewReceipt) error {
	if in.ValorTotalRecebido <= 0 {
		return invalid("valor_total_recebido", "O valor recebido deve ser maior que zero")
	}
	if in.ValorPrincipalPago < 0 {
		return invalid("valor_principal_pago", "não pode ser negativo")
	}
	if in.ValorJurosPago < 0 {
		return invalid("valor_juros_pago", "não pode ser negativo")
	}
	if !in.FormaPagamento.Valid() {
		return invalid("forma_pagamento", "deve ser pix, boleto ou transferencia")
	}
	if in.DataRecebimento.IsZero() {
		return invalid("data_recebimento", "data de recebimento obrigatória")
	}

	if in.InterestOnly {
		if in.ValorPrincipalPago != 0 {
			return invalid("valor_principal_pago", "deve ser zero em recebimento somente de juros")
		}
		if math.Abs(in.ValorJurosPago-in.ValorTotalRecebido) > PartitionTolerance {
			return invalid("valor_juros_pago", "deve ser igual ao total em recebimento somente de juros")
		}
	} else if math.Abs(in.ValorPrincipalPago+in.ValorJurosPago-in.ValorTotalRecebido) > PartitionTolerance {
		return invalid("valor_total_recebido", "principal + juros deve ser igual ao total recebido")
	}

	var paidPrincipal, paidJuros float64
	for _, r := range prior {
		paidPrincipal += r.ValorPrincipalPago
		paidJuros += r.ValorJurosPago
	}
	if paidPrincipal+in.ValorPrincipalPago > op.NetValue+CapTolerance {
		return invalid("valor_principal_pago", fmt.Sprintf(
			"principal acumulado %.2f excede o valor líquido %.2f", paidPrincipal+in.ValorPrincipalPago, op.NetValue))
	}
	interest := op.NominalValue - op.NetValue
	if !in.InterestOnly && paidJuros+in.ValorJurosPago > interest+CapTolerance {
		return invalid("valor_juros_pago", fmt.Sprintf(
			"juros acumulados %.2f excedem o deságio %.2f", paidJuros+in.ValorJurosPago, interest))
	}
	return nil
}

// fullyPaid reports whether the receipts' totals reach the nominal value.
// Amounts are summed unrounded; a sub-cent shortfall keeps the operation open.
func fullyPaid(op domain.Operation, receipts []domain.Receipt) bool {
	totals := make([]float64, 0, len(receipts))
	for _, r := range receipts {
		totals = append(totals, r.ValorTotalRecebido)
	}
	return sum(totals...).GreaterThanOrEqual(decimal.NewFromFloat(op.NominalValue))
}

// DeleteReceipt removes a receipt. When its operation was paid and the
// remaining receipts no longer cover the nominal value, the operation goes
// back to overdue or open following the due-date rule for today.
// Deleting an unknown id returns the snapshot unchanged.
func DeleteReceipt(s domain.State, id int, today domain.Date) (domain.State, bool) {
	r, ok := s.FindReceipt(id)
	if !ok {
		return s, false
	}
	s.Receipts = filter(s.Receipts, func(x domain.Receipt) bool { return x.ID != id })

	op, ok := s.FindOperation(r.OperationID)
	if !ok || op.Status != domain.StatusPago {
		return s, true
	}
	if !fullyPaid(op, s.ReceiptsFor(op.ID)) {
		s, _ = withStatus(s, op.ID, UnpaidStatus(op, today))
	}
	return s, true
}

// ListReceipts returns the receipts newest first, restricted to one
// operation when operationID is not zero.
func ListReceipts(s domain.State, operationID int) []domain.Receipt {
	out := []domain.Receipt{}
	for _, r := range s.Receipts {
		if operationID == 0 || r.OperationID == operationID {
			out = append(out, r)
		}
	}
	sortReceiptsNewestFirst(out)
	return out
}

func sortReceiptsNewestFirst(rs []domain.Receipt) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].DataRecebimento.Equal(rs[j].DataRecebimento) {
			return rs[i].DataRecebimento.After(rs[j].DataRecebimento)
		}
		return rs[i].ID > rs[j].ID
	})
}

// SuggestAllocation splits a prospective receipt between principal and
// interest in proportion to what is outstanding. Unless interestOnly is
// set, the amount is capped at the outstanding balance.
func SuggestAllocation(s domain.State, operationID int, total float64, interestOnly bool) (domain.Allocation, error) {
	op, ok := s.FindOperation(operationID)
	if !ok {
		return domain.Allocation{}, &domain.ErrNotFound{Resource: "operation", ID: fmt.Sprint(operationID)}
	}
	if total <= 0 {
		return domain.Allocation{}, invalid("total", "O valor recebido deve ser maior que zero")
	}

	out := Outstanding(op, s.Receipts)
	alloc := domain.Allocation{
		OperationID:  op.ID,
		Requested:    total,
		InterestOnly: interestOnly,
		Outstanding:  out,
	}

	if interestOnly {
		alloc.Total = Round2(total)
		alloc.Juros = alloc.Total
		return alloc, nil
	}
	if out.Total <= 0 {
		return alloc, nil
	}

	capped := decimal.Min(cents(total), cents(out.Total))
	ratio := decimal.NewFromFloat(out.Juros).Div(decimal.NewFromFloat(out.Total))
	juros := capped.Mul(ratio).Round(2)
	principal := capped.Sub(juros).Round(2)

	alloc.Total, _ = capped.Float64()
	alloc.Juros, _ = juros.Float64()
	alloc.Principal, _ = principal.Float64()
	return alloc, nil
}

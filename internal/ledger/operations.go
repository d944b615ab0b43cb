package ledger

import (
	"fmt"
	"strings"

	"github.com/caribe/factoring-bfa-go/internal/domain"
)

// NetValue is the amount advanced for a title: the nominal value
// discounted at taxa percent. It is the only net-value rule; creation and
// previews both use it.
func NetValue(nominal, taxa float64) float64 {
	return nominal / (1 + taxa/100)
}

// Preview computes the net value of a prospective operation.
func Preview(nominal, taxa float64) (domain.OperationPreview, error) {
	if err := validateMagnitudes(nominal, taxa); err != nil {
		return domain.OperationPreview{}, err
	}
	net := NetValue(nominal, taxa)
	return domain.OperationPreview{
		NominalValue: nominal,
		Taxa:         taxa,
		NetValue:     net,
		Desagio:      nominal - net,
	}, nil
}

func validateMagnitudes(nominal, taxa float64) error {
	if nominal <= 0 {
		return invalid("nominalValue", "O valor nominal deve ser maior que zero")
	}
	if taxa < 0 {
		return invalid("taxa", "A taxa não pode ser negativa")
	}
	return nil
}

// CreateOperation registers a discounted title for an existing client.
// The operation starts open and is placed first in the collection.
func CreateOperation(s domain.State, in domain.NewOperation) (domain.State, domain.Operation, error) {
	client, ok := s.FindClient(in.ClientID)
	if !ok {
		return s, domain.Operation{}, invalid("clientId", fmt.Sprintf("cliente %d não encontrado", in.ClientID))
	}
	if in.Type != domain.TitleDuplicata && in.Type != domain.TitleCheque {
		return s, domain.Operation{}, invalid("type", "tipo deve ser duplicata ou cheque")
	}
	if strings.TrimSpace(in.TitleNumber) == "" {
		return s, domain.Operation{}, invalid("titleNumber", "O número do título é obrigatório")
	}
	if err := validateMagnitudes(in.NominalValue, in.Taxa); err != nil {
		return s, domain.Operation{}, err
	}
	if in.IssueDate.IsZero() {
		return s, domain.Operation{}, invalid("issueDate", "data de emissão obrigatória")
	}
	if in.DueDate.IsZero() {
		return s, domain.Operation{}, invalid("dueDate", "data de vencimento obrigatória")
	}

	id := nextID(s.Sequences.Operations, s.Operations, func(op domain.Operation) int { return op.ID })
	op := domain.Operation{
		ID:           id,
		ClientID:     client.ID,
		ClientName:   client.Nome,
		Type:         in.Type,
		TitleNumber:  strings.TrimSpace(in.TitleNumber),
		NominalValue: in.NominalValue,
		NetValue:     NetValue(in.NominalValue, in.Taxa),
		IssueDate:    in.IssueDate,
		DueDate:      in.DueDate,
		Taxa:         in.Taxa,
		Status:       domain.StatusAberto,
	}

	s.Operations = prepend(s.Operations, op)
	s.Sequences.Operations = id
	return s, op, nil
}

// DeleteOperation removes an operation and every receipt registered
// against it. Deleting an unknown id returns the snapshot unchanged.
func DeleteOperation(s domain.State, id int) (domain.State, bool) {
	if _, ok := s.FindOperation(id); !ok {
		return s, false
	}
	s.Receipts = filter(s.Receipts, func(r domain.Receipt) bool { return r.OperationID != id })
	s.Operations = filter(s.Operations, func(op domain.Operation) bool { return op.ID != id })
	return s, true
}

// SetOperationStatus overrides an operation's status. Confirmation of
// destructive transitions is the caller's job.
func SetOperationStatus(s domain.State, id int, status domain.OperationStatus) (domain.State, domain.Operation, error) {
	if !status.Valid() {
		return s, domain.Operation{}, invalid("status", fmt.Sprintf("status inválido: %q", status))
	}
	if _, ok := s.FindOperation(id); !ok {
		return s, domain.Operation{}, &domain.ErrNotFound{Resource: "operation", ID: fmt.Sprint(id)}
	}
	next, op := withStatus(s, id, status)
	return next, op, nil
}

func withStatus(s domain.State, id int, status domain.OperationStatus) (domain.State, domain.Operation) {
	var updated domain.Operation
	ops := make([]domain.Operation, len(s.Operations))
	for i, op := range s.Operations {
		if op.ID == id {
			op.Status = status
			updated = op
		}
		ops[i] = op
	}
	s.Operations = ops
	return s, updated
}

// Outstanding returns what is still owed on an operation given the
// receipts already registered against it. Negative remainders caused by
// cent rounding are clamped to zero.
func Outstanding(op domain.Operation, receipts []domain.Receipt) domain.OutstandingBalance {
	var paidPrincipal, paidJuros float64
	for _, r := range receipts {
		if r.OperationID != op.ID {
			continue
		}
		paidPrincipal += r.ValorPrincipalPago
		paidJuros += r.ValorJurosPago
	}
	principal := op.NetValue - paidPrincipal
	juros := (op.NominalValue - op.NetValue) - paidJuros
	if principal < 0 {
		principal = 0
	}
	if juros < 0 {
		juros = 0
	}
	return domain.OutstandingBalance{
		Principal: principal,
		Juros:     juros,
		Total:     principal + juros,
	}
}

package ledger_test

import (
	"errors"
	"math"
	"testing"

	"github.com/caribe/factoring-bfa-go/internal/domain"
)

var d = domain.MustParseDate

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func op(id, clientID int, status domain.OperationStatus, nominal float64, issue, due string) domain.Operation {
	return domain.Operation{
		ID:           id,
		ClientID:     clientID,
		ClientName:   "Cliente",
		Type:         domain.TitleDuplicata,
		TitleNumber:  "DP-1",
		NominalValue: nominal,
		NetValue:     nominal / 1.03,
		IssueDate:    d(issue),
		DueDate:      d(due),
		Taxa:         3,
		Status:       status,
	}
}

// baseState has one client with a single open 1000.00 operation at 3%.
func baseState() domain.State {
	return domain.State{
		Clients: []domain.Client{
			{ID: 1, Nome: "Acme Ltda", CPFCNPJ: "12.345.678/0001-90", TaxaJurosMensal: 3, LimiteCredito: 50000},
		},
		Operations: []domain.Operation{
			op(1, 1, domain.StatusAberto, 1000, "2024-01-01", "2024-01-31"),
		},
	}
}

func receiptIn(opID int, total, principal, juros float64) domain.NewReceipt {
	return domain.NewReceipt{
		OperationID:        opID,
		DataRecebimento:    d("2024-01-20"),
		ValorTotalRecebido: total,
		ValorPrincipalPago: principal,
		ValorJurosPago:     juros,
		FormaPagamento:     domain.PagamentoPix,
	}
}

func mustStatus(t *testing.T, s domain.State, id int, want domain.OperationStatus) {
	t.Helper()
	got, ok := s.FindOperation(id)
	if !ok {
		t.Fatalf("operation %d not found", id)
	}
	if got.Status != want {
		t.Errorf("operation %d: expected status %s, got %s", id, want, got.Status)
	}
}

func wantValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if ve.Field != field {
		t.Errorf("expected field %q, got %q", field, ve.Field)
	}
}

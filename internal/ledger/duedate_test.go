package ledger_test

import (
	"testing"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/ledger"
)

func TestRefreshOverdue(t *testing.T) {
	today := d("2024-03-15")
	ops := []domain.Operation{
		op(1, 1, domain.StatusAberto, 100, "2024-01-01", "2024-03-14"),
		op(2, 1, domain.StatusAberto, 100, "2024-01-01", "2024-03-15"),
		op(3, 1, domain.StatusAberto, 100, "2024-01-01", "2024-03-16"),
		op(4, 1, domain.StatusPago, 100, "2024-01-01", "2024-02-01"),
		op(5, 1, domain.StatusAtrasado, 100, "2024-01-01", "2024-02-01"),
	}

	out, changed := ledger.RefreshOverdue(ops, today)
	if !changed {
		t.Fatal("expected a change")
	}

	want := []domain.OperationStatus{
		domain.StatusAtrasado,
		domain.StatusAberto, // due today is not overdue
		domain.StatusAberto,
		domain.StatusPago,
		domain.StatusAtrasado,
	}
	for i, w := range want {
		if out[i].Status != w {
			t.Errorf("op %d: expected %s, got %s", out[i].ID, w, out[i].Status)
		}
	}
	if ops[0].Status != domain.StatusAberto {
		t.Error("input slice was modified")
	}
}

func TestRefreshOverdue_NoChangeReturnsInput(t *testing.T) {
	ops := []domain.Operation{
		op(1, 1, domain.StatusAberto, 100, "2024-01-01", "2024-12-31"),
	}
	out, changed := ledger.RefreshOverdue(ops, d("2024-03-15"))
	if changed {
		t.Error("expected no change")
	}
	if &out[0] != &ops[0] {
		t.Error("expected the input slice back when nothing changes")
	}
}

func TestUnpaidStatus(t *testing.T) {
	o := op(1, 1, domain.StatusPago, 100, "2024-01-01", "2024-03-15")
	if got := ledger.UnpaidStatus(o, d("2024-03-15")); got != domain.StatusAberto {
		t.Errorf("expected aberto on the due date, got %s", got)
	}
	if got := ledger.UnpaidStatus(o, d("2024-03-16")); got != domain.StatusAtrasado {
		t.Errorf("expected atrasado after the due date, got %s", got)
	}
}

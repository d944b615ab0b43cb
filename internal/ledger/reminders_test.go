package ledger_test

import (
	"testing"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/ledger"
)

func TestActiveReminders(t *testing.T) {
	today := d("2024-03-15")
	s := domain.State{
		Operations: []domain.Operation{
			op(1, 1, domain.StatusAberto, 100, "2024-03-01", "2024-03-22"),   // 7 days
			op(2, 1, domain.StatusAberto, 100, "2024-03-01", "2024-03-15"),   // today
			op(3, 1, domain.StatusAberto, 100, "2024-03-01", "2024-03-23"),   // outside window
			op(4, 1, domain.StatusAtrasado, 100, "2024-03-01", "2024-03-14"), // overdue
			op(5, 1, domain.StatusPago, 100, "2024-03-01", "2024-03-16"),     // paid
			op(6, 1, domain.StatusAberto, 100, "2024-03-01", "2024-03-17"),   // dismissed
		},
		DismissedReminders: []int{6},
	}

	got := ledger.ActiveReminders(s, today, ledger.DefaultReminderWindowDays)
	if len(got) != 2 {
		t.Fatalf("expected 2 reminders, got %d: %+v", len(got), got)
	}
	if got[0].OperationID != 2 || got[0].DaysLeft != 0 {
		t.Errorf("expected op 2 due today first, got %+v", got[0])
	}
	if got[1].OperationID != 1 || got[1].DaysLeft != 7 {
		t.Errorf("expected op 1 in 7 days second, got %+v", got[1])
	}
}

func TestDismissReminder(t *testing.T) {
	s := baseState()

	next, added, err := ledger.DismissReminder(s, 1)
	if err != nil || !added {
		t.Fatalf("expected dismissal, got %v / %v", added, err)
	}
	if len(next.DismissedReminders) != 1 || len(s.DismissedReminders) != 0 {
		t.Error("unexpected dismissed set")
	}

	again, added, err := ledger.DismissReminder(next, 1)
	if err != nil || added {
		t.Errorf("second dismissal should be a no-op, got %v / %v", added, err)
	}
	if len(again.DismissedReminders) != 1 {
		t.Errorf("dismissed set grew to %d", len(again.DismissedReminders))
	}

	if _, _, err := ledger.DismissReminder(s, 99); err == nil {
		t.Error("expected error for unknown operation")
	}
}

package ledger

import "github.com/caribe/factoring-bfa-go/internal/domain"

// IsOverdue reports whether a due date is strictly in the past. A title
// due today is not yet overdue.
func IsOverdue(due, today domain.Date) bool {
	return due.Before(today)
}

// UnpaidStatus is the status an unpaid operation has on a given day.
func UnpaidStatus(op domain.Operation, today domain.Date) domain.OperationStatus {
	if IsOverdue(op.DueDate, today) {
		return domain.StatusAtrasado
	}
	return domain.StatusAberto
}

// RefreshOverdue marks every open operation whose due date has passed as
// overdue. Paid and already overdue operations are left alone. When
// nothing changes the input slice itself is returned with changed=false.
func RefreshOverdue(ops []domain.Operation, today domain.Date) (out []domain.Operation, changed bool) {
	for i, op := range ops {
		if op.Status != domain.StatusAberto || !IsOverdue(op.DueDate, today) {
			continue
		}
		if !changed {
			out = make([]domain.Operation, len(ops))
			copy(out, ops)
			changed = true
		}
		out[i].Status = domain.StatusAtrasado
	}
	if !changed {
		return ops, false
	}
	return out, true
}

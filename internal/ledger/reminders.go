package ledger

import (
	"fmt"
	"sort"

	"github.com/caribe/factoring-bfa-go/internal/domain"
)

// DefaultReminderWindowDays is how far ahead reminders look.
const DefaultReminderWindowDays = 7

// ActiveReminders lists open operations due between today and
// today+windowDays (inclusive) that were not dismissed, soonest first.
func ActiveReminders(s domain.State, today domain.Date, windowDays int) []domain.Reminder {
	dismissed := make(map[int]bool, len(s.DismissedReminders))
	for _, id := range s.DismissedReminders {
		dismissed[id] = true
	}

	out := []domain.Reminder{}
	for _, op := range s.Operations {
		if op.Status != domain.StatusAberto || dismissed[op.ID] {
			continue
		}
		days := op.DueDate.DaysSince(today)
		if days < 0 || days > windowDays {
			continue
		}
		out = append(out, domain.Reminder{
			ID:           op.ID,
			OperationID:  op.ID,
			ClientName:   op.ClientName,
			DueDate:      op.DueDate,
			NominalValue: op.NominalValue,
			DaysLeft:     days,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// DismissReminder adds an operation id to the dismissed set. The set only
// grows; dismissing twice is a no-op.
func DismissReminder(s domain.State, operationID int) (domain.State, bool, error) {
	if _, ok := s.FindOperation(operationID); !ok {
		return s, false, &domain.ErrNotFound{Resource: "operation", ID: fmt.Sprint(operationID)}
	}
	for _, id := range s.DismissedReminders {
		if id == operationID {
			return s, false, nil
		}
	}
	dismissed := make([]int, 0, len(s.DismissedReminders)+1)
	dismissed = append(dismissed, s.DismissedReminders...)
	s.DismissedReminders = append(dismissed, operationID)
	return s, true, nil
}

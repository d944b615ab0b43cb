package ledger

import (
	"fmt"
	"math"

	"github.com/caribe/factoring-bfa-go/internal/domain"
)

// daysPerMonth converts a monthly rate into a linear daily rate.
const daysPerMonth = 30

// CalculateInterest computes simple and compound interest over the days
// between the input dates. Degenerate input (non-positive capital,
// negative rate, end before start) yields zero interest instead of an
// error.
func CalculateInterest(in domain.InterestInput) domain.InterestResult {
	res := domain.InterestResult{Input: in}
	dias := in.EndDate.DaysSince(in.StartDate)
	taxaDiaria := in.Taxa / 100 / daysPerMonth

	if in.Capital <= 0 || in.Taxa < 0 || dias < 0 {
		if in.Capital > 0 {
			res.MontanteSimples = in.Capital
			res.MontanteComposto = in.Capital
		}
		if dias > 0 {
			res.Dias = dias
		}
		return res
	}

	res.Dias = dias
	res.TaxaDiaria = taxaDiaria
	res.JurosSimples = in.Capital * taxaDiaria * float64(dias)
	res.MontanteSimples = in.Capital + res.JurosSimples
	res.MontanteComposto = in.Capital * math.Pow(1+taxaDiaria, float64(dias))
	res.JurosCompostos = res.MontanteComposto - in.Capital
	return res
}

// PrefillInterest fills calculator input from the registry. A selected
// client sets the rate; a selected operation, which must be unpaid and
// belong to that client, overrides capital, rate and both dates and locks
// the result. Without selectors the input is returned as is.
func PrefillInterest(s domain.State, in domain.InterestInput) (domain.InterestInput, bool, error) {
	if in.ClientID == 0 && in.OperationID == 0 {
		return in, false, nil
	}

	if in.OperationID != 0 {
		op, ok := s.FindOperation(in.OperationID)
		if !ok {
			return in, false, &domain.ErrNotFound{Resource: "operation", ID: fmt.Sprint(in.OperationID)}
		}
		if in.ClientID != 0 && op.ClientID != in.ClientID {
			return in, false, invalid("operationId", "a operação não pertence ao cliente selecionado")
		}
		if op.Status == domain.StatusPago {
			return in, false, invalid("operationId", "operação já paga")
		}
		in.ClientID = op.ClientID
		in.Capital = op.NetValue
		in.Taxa = op.Taxa
		in.StartDate = op.IssueDate
		in.EndDate = op.DueDate
		return in, true, nil
	}

	c, ok := s.FindClient(in.ClientID)
	if !ok {
		return in, false, &domain.ErrNotFound{Resource: "client", ID: fmt.Sprint(in.ClientID)}
	}
	in.Taxa = c.TaxaJurosMensal
	return in, false, nil
}

// Calculate runs the calculator with registry prefill applied.
func Calculate(s domain.State, in domain.InterestInput) (domain.InterestResult, error) {
	filled, locked, err := PrefillInterest(s, in)
	if err != nil {
		return domain.InterestResult{}, err
	}
	res := CalculateInterest(filled)
	res.Locked = locked
	return res, nil
}

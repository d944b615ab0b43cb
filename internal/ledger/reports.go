package ledger

import (
	"sort"

	"github.com/caribe/factoring-bfa-go/internal/domain"
)

const (
	dueSoonLimit = 5
	rankingLimit = 5
	next7Days    = 7
	next30Days   = 30
	daysInWeek   = 7
)

// ============================================================
// Dashboard
// ============================================================

// BuildDashboard summarises the portfolio as of today.
func BuildDashboard(s domain.State, today domain.Date) domain.Dashboard {
	d := domain.Dashboard{Today: today, DueSoon: []domain.DueItem{}}

	pending := make([]domain.Operation, 0, len(s.Operations))
	for _, op := range s.Operations {
		switch op.Status {
		case domain.StatusAberto:
			d.StatusCounts.Aberto++
			d.TotalCapital += op.NetValue
			d.TotalReceivables += op.NominalValue
			pending = append(pending, op)
		case domain.StatusAtrasado:
			d.StatusCounts.Atrasado++
			d.DelinquencyValue += op.NominalValue
			pending = append(pending, op)
		case domain.StatusPago:
			d.StatusCounts.Pago++
		}
	}
	d.InterestToReceive = d.TotalReceivables - d.TotalCapital

	sort.SliceStable(pending, func(i, j int) bool { return pending[i].DueDate.Before(pending[j].DueDate) })
	if len(pending) > dueSoonLimit {
		pending = pending[:dueSoonLimit]
	}

	weekStart := today.AddDays(-((int(today.Weekday()) + 6) % daysInWeek))
	weekEnd := weekStart.AddDays(daysInWeek - 1)
	for _, op := range pending {
		diff := op.DueDate.DaysSince(today)
		d.DueSoon = append(d.DueSoon, domain.DueItem{
			Operation: op,
			Category:  dueCategory(op.DueDate, today, weekEnd, diff),
			DaysDiff:  diff,
		})
	}
	return d
}

func dueCategory(due, today, weekEnd domain.Date, diff int) domain.DueCategory {
	switch {
	case due.Before(today):
		return domain.DueOverdue
	case due.Equal(today):
		return domain.DueToday
	case diff > 0 && !due.After(weekEnd):
		return domain.DueWeek
	default:
		return domain.DueUpcoming
	}
}

// ============================================================
// Reports
// ============================================================

// CurrentMonth is the default report range.
func CurrentMonth(today domain.Date) domain.ReportRange {
	first, last := today.Month()
	return domain.ReportRange{Start: first, End: last}
}

// BuildReport builds the period report. Operations are filtered by issue
// date and receipts by receipt date; the cash-flow projection and the
// delinquency section always cover the whole portfolio.
func BuildReport(s domain.State, rng domain.ReportRange, today domain.Date) domain.Report {
	var ops []domain.Operation
	for _, op := range s.Operations {
		if rng.Contains(op.IssueDate) {
			ops = append(ops, op)
		}
	}
	var receipts []domain.Receipt
	for _, r := range s.Receipts {
		if rng.Contains(r.DataRecebimento) {
			receipts = append(receipts, r)
		}
	}

	return domain.Report{
		Range:              rng,
		FinancialSummary:   financialSummary(ops, receipts),
		CashflowProjection: cashflowProjection(s.Operations, today),
		ClientRanking:      clientRanking(ops),
		Delinquency:        delinquency(s.Operations, today),
		PerformanceByType:  performanceByType(ops),
		ReceiptsAnalysis:   receiptsAnalysis(s, receipts),
	}
}

func financialSummary(ops []domain.Operation, receipts []domain.Receipt) domain.FinancialSummary {
	var fs domain.FinancialSummary
	for _, op := range ops {
		fs.CapitalAplicado += op.NetValue
		fs.ValorAReceber += op.NominalValue
	}
	var principal float64
	for _, r := range receipts {
		fs.TotalRecebido += r.ValorTotalRecebido
		principal += r.ValorPrincipalPago
	}
	fs.JurosRealizados = fs.TotalRecebido - principal
	if fs.CapitalAplicado > 0 {
		fs.TaxaRetorno = fs.JurosRealizados / fs.CapitalAplicado * 100
	}
	return fs
}

// cashflowProjection buckets the nominal value of open and overdue
// operations by days until due. Past-due amounts get their own bucket.
func cashflowProjection(ops []domain.Operation, today domain.Date) domain.CashflowProjection {
	var cf domain.CashflowProjection
	for _, op := range ops {
		if op.Status == domain.StatusPago {
			continue
		}
		diff := op.DueDate.DaysSince(today)
		switch {
		case diff < 0:
			cf.Vencido += op.NominalValue
		case diff <= next7Days:
			cf.Next7d += op.NominalValue
		case diff <= next30Days:
			cf.Days8to30 += op.NominalValue
		default:
			cf.Over30d += op.NominalValue
		}
	}
	return cf
}

func clientRanking(ops []domain.Operation) []domain.ClientRanking {
	byClient := make(map[int]*domain.ClientRanking)
	for _, op := range ops {
		cr, ok := byClient[op.ClientID]
		if !ok {
			cr = &domain.ClientRanking{ClientID: op.ClientID, Name: op.ClientName}
			byClient[op.ClientID] = cr
		}
		cr.TotalValue += op.NominalValue
		cr.OpCount++
	}

	out := make([]domain.ClientRanking, 0, len(byClient))
	for _, cr := range byClient {
		out = append(out, *cr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].ClientID < out[j].ClientID
	})
	if len(out) > rankingLimit {
		out = out[:rankingLimit]
	}
	return out
}

func delinquency(ops []domain.Operation, today domain.Date) domain.Delinquency {
	d := domain.Delinquency{Operations: []domain.Operation{}}
	clients := make(map[int]bool)
	totalDays := 0
	for _, op := range ops {
		if op.Status != domain.StatusAtrasado {
			continue
		}
		d.Operations = append(d.Operations, op)
		d.TotalOverdue += op.NominalValue
		clients[op.ClientID] = true
		if days := today.DaysSince(op.DueDate); days > 0 {
			totalDays += days
		}
	}
	d.UniqueClients = len(clients)
	if n := len(d.Operations); n > 0 {
		d.AvgDaysOverdue = float64(totalDays) / float64(n)
	}
	return d
}

func performanceByType(ops []domain.Operation) []domain.TypePerformance {
	out := []domain.TypePerformance{
		{Type: domain.TitleDuplicata},
		{Type: domain.TitleCheque},
	}
	for _, op := range ops {
		for i := range out {
			if out[i].Type == op.Type {
				out[i].Count++
				out[i].Value += op.NominalValue
			}
		}
	}
	return out
}

var paymentMethodOrder = []domain.FormaPagamento{
	domain.PagamentoPix,
	domain.PagamentoBoleto,
	domain.PagamentoTransferencia,
}

func receiptsAnalysis(s domain.State, receipts []domain.Receipt) domain.ReceiptsAnalysis {
	ra := domain.ReceiptsAnalysis{PaymentMethods: []domain.PaymentMethodCount{}}
	if len(receipts) == 0 {
		return ra
	}

	counts := make(map[domain.FormaPagamento]int)
	var days, samples int
	for _, r := range receipts {
		ra.TotalRecebido += r.ValorTotalRecebido
		counts[r.FormaPagamento]++
		if op, ok := s.FindOperation(r.OperationID); ok {
			if d := r.DataRecebimento.DaysSince(op.IssueDate); d >= 0 {
				days += d
				samples++
			}
		}
	}
	if samples > 0 {
		ra.AvgPaymentDays = float64(days) / float64(samples)
	}
	for _, m := range paymentMethodOrder {
		if n := counts[m]; n > 0 {
			ra.PaymentMethods = append(ra.PaymentMethods, domain.PaymentMethodCount{Method: m, Count: n})
		}
	}
	return ra
}

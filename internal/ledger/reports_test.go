package ledger_test

import (
	"testing"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/ledger"
)

// 2024-03-15 is a Friday; its week runs Monday 11th to Sunday 17th.
func portfolio() domain.State {
	return domain.State{
		Operations: []domain.Operation{
			op(1, 1, domain.StatusAtrasado, 1000, "2024-03-01", "2024-03-10"),
			op(2, 2, domain.StatusAberto, 2000, "2024-03-02", "2024-03-15"),
			op(3, 2, domain.StatusAberto, 500, "2024-03-03", "2024-03-17"),
			op(4, 3, domain.StatusAberto, 300, "2024-03-04", "2024-03-20"),
			op(5, 3, domain.StatusPago, 400, "2024-02-01", "2024-03-01"),
			op(6, 1, domain.StatusAberto, 250, "2024-02-10", "2024-04-01"),
			op(7, 2, domain.StatusAberto, 100, "2024-02-11", "2024-04-30"),
		},
	}
}

func TestBuildDashboard(t *testing.T) {
	dash := ledger.BuildDashboard(portfolio(), d("2024-03-15"))

	if dash.StatusCounts != (domain.StatusCount{Aberto: 5, Pago: 1, Atrasado: 1}) {
		t.Errorf("unexpected counts %+v", dash.StatusCounts)
	}
	if dash.TotalReceivables != 3150 {
		t.Errorf("expected receivables 3150, got %v", dash.TotalReceivables)
	}
	if dash.DelinquencyValue != 1000 {
		t.Errorf("expected delinquency 1000, got %v", dash.DelinquencyValue)
	}
	if !approx(dash.InterestToReceive, dash.TotalReceivables-dash.TotalCapital) {
		t.Errorf("interest to receive is not receivables - capital")
	}

	want := []struct {
		id  int
		cat domain.DueCategory
	}{
		{1, domain.DueOverdue},
		{2, domain.DueToday},
		{3, domain.DueWeek},
		{4, domain.DueUpcoming},
		{6, domain.DueUpcoming},
	}
	if len(dash.DueSoon) != len(want) {
		t.Fatalf("expected %d due items, got %d", len(want), len(dash.DueSoon))
	}
	for i, w := range want {
		if dash.DueSoon[i].ID != w.id || dash.DueSoon[i].Category != w.cat {
			t.Errorf("item %d: expected op %d/%s, got op %d/%s",
				i, w.id, w.cat, dash.DueSoon[i].ID, dash.DueSoon[i].Category)
		}
	}
}

func TestBuildReport_CashflowAndDelinquency(t *testing.T) {
	rep := ledger.BuildReport(portfolio(), ledger.CurrentMonth(d("2024-03-15")), d("2024-03-15"))

	cf := rep.CashflowProjection
	if cf.Vencido != 1000 || cf.Next7d != 2800 || cf.Days8to30 != 250 || cf.Over30d != 100 {
		t.Errorf("unexpected projection %+v", cf)
	}

	if rep.Delinquency.TotalOverdue != 1000 || rep.Delinquency.UniqueClients != 1 {
		t.Errorf("unexpected delinquency %+v", rep.Delinquency)
	}
	if rep.Delinquency.AvgDaysOverdue != 5 {
		t.Errorf("expected 5 days overdue on average, got %v", rep.Delinquency.AvgDaysOverdue)
	}
}

func TestBuildReport_PeriodSections(t *testing.T) {
	s := portfolio()
	s.Receipts = []domain.Receipt{
		{ID: 1, OperationID: 5, DataRecebimento: d("2024-03-01"), ValorTotalRecebido: 400, ValorPrincipalPago: 388.35, ValorJurosPago: 11.65, FormaPagamento: domain.PagamentoBoleto},
		{ID: 2, OperationID: 2, DataRecebimento: d("2024-03-12"), ValorTotalRecebido: 100, ValorPrincipalPago: 97.09, ValorJurosPago: 2.91, FormaPagamento: domain.PagamentoPix},
		{ID: 3, OperationID: 2, DataRecebimento: d("2024-02-28"), ValorTotalRecebido: 50, ValorPrincipalPago: 50, FormaPagamento: domain.PagamentoPix},
	}
	rng := domain.ReportRange{Start: d("2024-03-01"), End: d("2024-03-31")}
	rep := ledger.BuildReport(s, rng, d("2024-03-15"))

	fs := rep.FinancialSummary
	if fs.ValorAReceber != 3800 {
		t.Errorf("expected 3800 receivable in March, got %v", fs.ValorAReceber)
	}
	if fs.TotalRecebido != 500 {
		t.Errorf("expected 500 received, got %v", fs.TotalRecebido)
	}
	if !approx(fs.JurosRealizados, 500-388.35-97.09) {
		t.Errorf("unexpected realized interest %v", fs.JurosRealizados)
	}
	if !approx(fs.TaxaRetorno, fs.JurosRealizados/fs.CapitalAplicado*100) {
		t.Errorf("unexpected return rate %v", fs.TaxaRetorno)
	}

	if len(rep.ClientRanking) != 3 || rep.ClientRanking[0].ClientID != 2 || rep.ClientRanking[0].TotalValue != 2500 {
		t.Errorf("unexpected ranking %+v", rep.ClientRanking)
	}

	if rep.PerformanceByType[0].Type != domain.TitleDuplicata || rep.PerformanceByType[0].Count != 4 {
		t.Errorf("unexpected performance %+v", rep.PerformanceByType)
	}

	ra := rep.ReceiptsAnalysis
	if ra.TotalRecebido != 500 {
		t.Errorf("expected 500 in receipts analysis, got %v", ra.TotalRecebido)
	}
	// op 5 issued 2024-02-01, paid 2024-03-01 (29 days); op 2 issued 2024-03-02, paid 03-12 (10 days).
	if ra.AvgPaymentDays != 19.5 {
		t.Errorf("expected 19.5 average days, got %v", ra.AvgPaymentDays)
	}
	wantMethods := []domain.PaymentMethodCount{
		{Method: domain.PagamentoPix, Count: 1},
		{Method: domain.PagamentoBoleto, Count: 1},
	}
	if len(ra.PaymentMethods) != 2 || ra.PaymentMethods[0] != wantMethods[0] || ra.PaymentMethods[1] != wantMethods[1] {
		t.Errorf("unexpected payment methods %+v", ra.PaymentMethods)
	}
}

func TestBuildReport_AveragesClampEarlySamples(t *testing.T) {
	s := portfolio()
	// Marked overdue by hand before its due date: counts as zero days.
	s.Operations = append(s.Operations, op(8, 3, domain.StatusAtrasado, 200, "2024-03-01", "2024-03-30"))
	s.Receipts = []domain.Receipt{
		{ID: 1, OperationID: 2, DataRecebimento: d("2024-03-12"), ValorTotalRecebido: 100, ValorPrincipalPago: 97.09, ValorJurosPago: 2.91, FormaPagamento: domain.PagamentoPix},
		// Dated before the operation's issue date: left out of the average.
		{ID: 2, OperationID: 4, DataRecebimento: d("2024-03-02"), ValorTotalRecebido: 50, ValorPrincipalPago: 50, FormaPagamento: domain.PagamentoPix},
	}
	rng := domain.ReportRange{Start: d("2024-03-01"), End: d("2024-03-31")}
	rep := ledger.BuildReport(s, rng, d("2024-03-15"))

	if len(rep.Delinquency.Operations) != 2 {
		t.Fatalf("expected 2 overdue operations, got %d", len(rep.Delinquency.Operations))
	}
	if rep.Delinquency.AvgDaysOverdue != 2.5 {
		t.Errorf("expected 2.5 days overdue on average, got %v", rep.Delinquency.AvgDaysOverdue)
	}
	if rep.ReceiptsAnalysis.TotalRecebido != 150 {
		t.Errorf("expected 150 received, got %v", rep.ReceiptsAnalysis.TotalRecebido)
	}
	if rep.ReceiptsAnalysis.AvgPaymentDays != 10 {
		t.Errorf("expected 10 average days, got %v", rep.ReceiptsAnalysis.AvgPaymentDays)
	}
}

func TestCurrentMonth(t *testing.T) {
	rng := ledger.CurrentMonth(d("2024-02-10"))
	if rng.Start.String() != "2024-02-01" || rng.End.String() != "2024-02-29" {
		t.Errorf("unexpected range %s..%s", rng.Start, rng.End)
	}
}

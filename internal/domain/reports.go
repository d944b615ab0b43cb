package domain

// ============================================================
// Dashboard
// ============================================================

// DueCategory classifies an upcoming due date on the dashboard.
type DueCategory string

const (
	DueOverdue  DueCategory = "overdue"
	DueToday    DueCategory = "today"
	DueWeek     DueCategory = "week"
	DueUpcoming DueCategory = "upcoming"
)

// DueItem is an open or overdue operation listed on the dashboard.
type DueItem struct {
	Operation
	Category DueCategory `json:"category"`
	DaysDiff int         `json:"daysDiff"`
}

// StatusCount counts operations per status.
type StatusCount struct {
	Aberto   int `json:"aberto"`
	Pago     int `json:"pago"`
	Atrasado int `json:"atrasado"`
}

// Dashboard is the control panel summary.
type Dashboard struct {
	Today             Date        `json:"today"`
	TotalCapital      float64     `json:"totalCapital"`
	TotalReceivables  float64     `json:"totalReceivables"`
	InterestToReceive float64     `json:"interestToReceive"`
	DelinquencyValue  float64     `json:"delinquencyValue"`
	StatusCounts      StatusCount `json:"statusCounts"`
	DueSoon           []DueItem   `json:"dueSoon"`
}

// ============================================================
// Reports
// ============================================================

// ReportRange bounds the operations (by issue date) and receipts (by
// receipt date) that feed period reports. Both ends are inclusive.
type ReportRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d falls inside the range.
func (r ReportRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// FinancialSummary is the period's money flow.
type FinancialSummary struct {
	CapitalAplicado float64 `json:"capitalAplicado"`
	ValorAReceber   float64 `json:"valorAReceber"`
	TotalRecebido   float64 `json:"totalRecebido"`
	JurosRealizados float64 `json:"jurosRealizados"`
	TaxaRetorno     float64 `json:"taxaRetorno"` // percent
}

// CashflowProjection buckets the nominal value still to be collected.
type CashflowProjection struct {
	Vencido   float64 `json:"vencido"`
	Next7d    float64 `json:"7d"`
	Days8to30 float64 `json:"8-30d"`
	Over30d   float64 `json:">30d"`
}

// ClientRanking is one entry of the top clients by nominal value.
type ClientRanking struct {
	ClientID   int     `json:"clientId"`
	Name       string  `json:"name"`
	TotalValue float64 `json:"totalValue"`
	OpCount    int     `json:"opCount"`
}

// Delinquency summarises overdue operations (inadimplência).
type Delinquency struct {
	TotalOverdue   float64     `json:"totalOverdue"`
	UniqueClients  int         `json:"uniqueClients"`
	AvgDaysOverdue float64     `json:"avgDaysOverdue"`
	Operations     []Operation `json:"operations"`
}

// TypePerformance aggregates one title type.
type TypePerformance struct {
	Type  TitleType `json:"type"`
	Count int       `json:"count"`
	Value float64   `json:"value"`
}

// PaymentMethodCount counts receipts per payment method.
type PaymentMethodCount struct {
	Method FormaPagamento `json:"method"`
	Count  int            `json:"count"`
}

// ReceiptsAnalysis describes collection behaviour in the period.
type ReceiptsAnalysis struct {
	TotalRecebido  float64              `json:"totalRecebido"`
	AvgPaymentDays float64              `json:"avgPaymentDays"`
	PaymentMethods []PaymentMethodCount `json:"paymentMethods"`
}

// Report is the full reports page payload.
type Report struct {
	Range              ReportRange        `json:"range"`
	FinancialSummary   FinancialSummary   `json:"financialSummary"`
	CashflowProjection CashflowProjection `json:"cashflowProjection"`
	ClientRanking      []ClientRanking    `json:"clientRanking"`
	Delinquency        Delinquency        `json:"delinquency"`
	PerformanceByType  []TypePerformance  `json:"performanceByType"`
	ReceiptsAnalysis   ReceiptsAnalysis   `json:"receiptsAnalysis"`
}

// ============================================================
// Interest calculator
// ============================================================

// InterestInput is the calculator's input. ClientID and OperationID are
// optional prefill selectors.
type InterestInput struct {
	Capital     float64 `json:"capital"`
	Taxa        float64 `json:"taxa"` // percent per month
	StartDate   Date    `json:"startDate"`
	EndDate     Date    `json:"endDate"`
	ClientID    int     `json:"clientId,omitempty"`
	OperationID int     `json:"operationId,omitempty"`
}

// InterestResult holds both simple and compound results.
type InterestResult struct {
	Input            InterestInput `json:"input"`
	Locked           bool          `json:"locked"`
	Dias             int           `json:"dias"`
	TaxaDiaria       float64       `json:"taxaDiaria"`
	JurosSimples     float64       `json:"jurosSimples"`
	MontanteSimples  float64       `json:"montanteSimples"`
	JurosCompostos   float64       `json:"jurosCompostos"`
	MontanteComposto float64       `json:"montanteComposto"`
}

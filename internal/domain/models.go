package domain

import "time"

// ============================================================
// Clients
// ============================================================

// Client is a company or person whose receivables are discounted.
type Client struct {
	ID              int       `json:"id"`
	Nome            string    `json:"nome"`
	CPFCNPJ         string    `json:"cpf_cnpj"`
	Email           string    `json:"email"`
	Telefone        string    `json:"telefone"`
	Endereco        string    `json:"endereco"`
	LimiteCredito   float64   `json:"limite_credito"`
	TaxaJurosMensal float64   `json:"taxa_juros_mensal"` // percent per month
	DataCadastro    time.Time `json:"data_cadastro"`
}

// NewClient is the registration payload.
type NewClient struct {
	Nome            string  `json:"nome" validate:"required"`
	CPFCNPJ         string  `json:"cpf_cnpj" validate:"required"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Telefone        string  `json:"telefone"`
	Endereco        string  `json:"endereco"`
	LimiteCredito   float64 `json:"limite_credito" validate:"gte=0"`
	TaxaJurosMensal float64 `json:"taxa_juros_mensal" validate:"gte=0"`
}

// ClientWithOperationCount is the list view of a client.
type ClientWithOperationCount struct {
	Client
	OperationCount int `json:"operationCount"`
}

// ClientStats summarises a client's exposure.
type ClientStats struct {
	ClientID         int         `json:"clientId"`
	TotalAplicado    float64     `json:"totalAplicado"`
	TotalDivida      float64     `json:"totalDivida"`
	TotalAtrasado    float64     `json:"totalAtrasado"`
	LimiteCredito    float64     `json:"limite_credito"`
	LimiteDisponivel float64     `json:"limiteDisponivel"`
	Operations       []Operation `json:"operations"`
	Receipts         []Receipt   `json:"receipts"`
}

// ============================================================
// Operations
// ============================================================

// OperationStatus is the lifecycle state of a discounted title.
type OperationStatus string

const (
	StatusAberto   OperationStatus = "aberto"
	StatusPago     OperationStatus = "pago"
	StatusAtrasado OperationStatus = "atrasado"
)

// Valid reports whether s is a known status.
func (s OperationStatus) Valid() bool {
	switch s {
	case StatusAberto, StatusPago, StatusAtrasado:
		return true
	}
	return false
}

// TitleType is the kind of receivable purchased.
type TitleType string

const (
	TitleDuplicata TitleType = "duplicata"
	TitleCheque    TitleType = "cheque"
)

// Operation is one discounted title (duplicata or cheque).
type Operation struct {
	ID           int             `json:"id"`
	ClientID     int             `json:"clientId"`
	ClientName   string          `json:"clientName"` // snapshot at creation time
	Type         TitleType       `json:"type"`
	TitleNumber  string          `json:"titleNumber"`
	NominalValue float64         `json:"nominalValue"`
	NetValue     float64         `json:"netValue"`
	IssueDate    Date            `json:"issueDate"`
	DueDate      Date            `json:"dueDate"`
	Taxa         float64         `json:"taxa"` // percent
	Status       OperationStatus `json:"status"`
}

// NewOperation carries every operation field the caller supplies.
// Id, client name snapshot, net value and status are derived.
type NewOperation struct {
	ClientID     int       `json:"clientId" validate:"required,gt=0"`
	Type         TitleType `json:"type" validate:"required,oneof=duplicata cheque"`
	TitleNumber  string    `json:"titleNumber" validate:"required"`
	NominalValue float64   `json:"nominalValue"`
	IssueDate    Date      `json:"issueDate"`
	DueDate      Date      `json:"dueDate"`
	Taxa         float64   `json:"taxa"`
}

// OperationPreview is the live net-value preview of a prospective title.
type OperationPreview struct {
	NominalValue float64 `json:"nominalValue"`
	Taxa         float64 `json:"taxa"`
	NetValue     float64 `json:"netValue"`
	Desagio      float64 `json:"desagio"` // nominal - net
}

// OutstandingBalance is what is still owed on an operation, split
// between principal (advanced amount) and interest (discount).
type OutstandingBalance struct {
	Principal float64 `json:"principal"`
	Juros     float64 `json:"juros"`
	Total     float64 `json:"total"`
}

// Allocation is a suggested principal/interest split for a receipt.
type Allocation struct {
	OperationID  int                `json:"operationId"`
	Requested    float64            `json:"requested"`
	Total        float64            `json:"valor_total_recebido"`
	Principal    float64            `json:"valor_principal_pago"`
	Juros        float64            `json:"valor_juros_pago"`
	InterestOnly bool               `json:"interest_only"`
	Outstanding  OutstandingBalance `json:"outstanding"`
}

// ============================================================
// Receipts (recebimentos)
// ============================================================

// FormaPagamento is how a receipt was paid.
type FormaPagamento string

const (
	PagamentoPix           FormaPagamento = "pix"
	PagamentoBoleto        FormaPagamento = "boleto"
	PagamentoTransferencia FormaPagamento = "transferencia"
)

// Valid reports whether f is a known payment method.
func (f FormaPagamento) Valid() bool {
	switch f {
	case PagamentoPix, PagamentoBoleto, PagamentoTransferencia:
		return true
	}
	return false
}

// Receipt is one payment event against exactly one operation.
type Receipt struct {
	ID                 int            `json:"id"`
	OperationID        int            `json:"operationId"`
	DataRecebimento    Date           `json:"data_recebimento"`
	ValorTotalRecebido float64        `json:"valor_total_recebido"`
	ValorPrincipalPago float64        `json:"valor_principal_pago"`
	ValorJurosPago     float64        `json:"valor_juros_pago"`
	FormaPagamento     FormaPagamento `json:"forma_pagamento"`
}

// NewReceipt is the registration payload of a receipt.
type NewReceipt struct {
	OperationID        int            `json:"operationId" validate:"required,gt=0"`
	DataRecebimento    Date           `json:"data_recebimento"`
	ValorTotalRecebido float64        `json:"valor_total_recebido"`
	ValorPrincipalPago float64        `json:"valor_principal_pago"`
	ValorJurosPago     float64        `json:"valor_juros_pago"`
	FormaPagamento     FormaPagamento `json:"forma_pagamento" validate:"required,oneof=pix boleto transferencia"`
	InterestOnly       bool           `json:"interest_only,omitempty"`
}

// ============================================================
// Reminders
// ============================================================

// Reminder is a derived view over an open operation due soon.
type Reminder struct {
	ID           int     `json:"id"`
	OperationID  int     `json:"operationId"`
	ClientName   string  `json:"clientName"`
	DueDate      Date    `json:"dueDate"`
	NominalValue float64 `json:"nominalValue"`
	DaysLeft     int     `json:"daysLeft"`
}

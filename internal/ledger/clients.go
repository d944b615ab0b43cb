package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"
)

func validateClient(in domain.NewClient) error {
	if strings.TrimSpace(in.Nome) == "" {
		return invalid("nome", "O nome é obrigatório")
	}
	doc := onlyDigits(in.CPFCNPJ)
	if doc == "" {
		return invalid("cpf_cnpj", "O CPF/CNPJ é obrigatório")
	}
	if len(doc) != 11 && len(doc) != 14 {
		return invalid("cpf_cnpj", "CPF/CNPJ inválido. Deve conter 11 (CPF) ou 14 (CNPJ) dígitos")
	}
	if in.LimiteCredito < 0 {
		return invalid("limite_credito", "O limite de crédito não pode ser negativo")
	}
	if in.TaxaJurosMensal < 0 {
		return invalid("taxa_juros_mensal", "A taxa de juros não pode ser negativa")
	}
	return nil
}

func clientFrom(id int, in domain.NewClient, registeredAt time.Time) domain.Client {
	return domain.Client{
		ID:              id,
		Nome:            strings.TrimSpace(in.Nome),
		CPFCNPJ:         strings.TrimSpace(in.CPFCNPJ),
		Email:           strings.TrimSpace(in.Email),
		Telefone:        in.Telefone,
		Endereco:        in.Endereco,
		LimiteCredito:   in.LimiteCredito,
		TaxaJurosMensal: in.TaxaJurosMensal,
		DataCadastro:    registeredAt,
	}
}

// AddClient registers a client.
func AddClient(s domain.State, in domain.NewClient, now time.Time) (domain.State, domain.Client, error) {
	if err := validateClient(in); err != nil {
		return s, domain.Client{}, err
	}
	id := nextID(s.Sequences.Clients, s.Clients, func(c domain.Client) int { return c.ID })
	c := clientFrom(id, in, now)

	s.Clients = prepend(s.Clients, c)
	s.Sequences.Clients = id
	return s, c, nil
}

// UpdateClient replaces a client's editable fields. Operations keep the
// client name they were created with.
func UpdateClient(s domain.State, id int, in domain.NewClient) (domain.State, domain.Client, error) {
	current, ok := s.FindClient(id)
	if !ok {
		return s, domain.Client{}, &domain.ErrNotFound{Resource: "client", ID: fmt.Sprint(id)}
	}
	if err := validateClient(in); err != nil {
		return s, domain.Client{}, err
	}
	updated := clientFrom(id, in, current.DataCadastro)

	clients := make([]domain.Client, len(s.Clients))
	for i, c := range s.Clients {
		if c.ID == id {
			c = updated
		}
		clients[i] = c
	}
	s.Clients = clients
	return s, updated, nil
}

// DeleteClient removes a client together with its operations and their
// receipts. Deleting an unknown id returns the snapshot unchanged.
func DeleteClient(s domain.State, id int) (domain.State, bool) {
	if _, ok := s.FindClient(id); !ok {
		return s, false
	}
	doomed := make(map[int]bool)
	for _, op := range s.Operations {
		if op.ClientID == id {
			doomed[op.ID] = true
		}
	}
	s.Receipts = filter(s.Receipts, func(r domain.Receipt) bool { return !doomed[r.OperationID] })
	s.Operations = filter(s.Operations, func(op domain.Operation) bool { return op.ClientID != id })
	s.Clients = filter(s.Clients, func(c domain.Client) bool { return c.ID != id })
	return s, true
}

// ClientsWithCounts lists clients with the number of operations each has.
func ClientsWithCounts(s domain.State) []domain.ClientWithOperationCount {
	counts := make(map[int]int)
	for _, op := range s.Operations {
		counts[op.ClientID]++
	}
	out := make([]domain.ClientWithOperationCount, 0, len(s.Clients))
	for _, c := range s.Clients {
		out = append(out, domain.ClientWithOperationCount{Client: c, OperationCount: counts[c.ID]})
	}
	return out
}

// ClientStatsFor summarises a client's exposure and history.
func ClientStatsFor(s domain.State, id int) (domain.ClientStats, error) {
	c, ok := s.FindClient(id)
	if !ok {
		return domain.ClientStats{}, &domain.ErrNotFound{Resource: "client", ID: fmt.Sprint(id)}
	}
	stats := domain.ClientStats{
		ClientID:      id,
		LimiteCredito: c.LimiteCredito,
		Operations:    []domain.Operation{},
		Receipts:      []domain.Receipt{},
	}
	opIDs := make(map[int]bool)
	for _, op := range s.Operations {
		if op.ClientID != id {
			continue
		}
		opIDs[op.ID] = true
		stats.Operations = append(stats.Operations, op)
		stats.TotalAplicado += op.NetValue
		switch op.Status {
		case domain.StatusAtrasado:
			stats.TotalAtrasado += op.NominalValue
			stats.TotalDivida += op.NominalValue
		case domain.StatusAberto:
			stats.TotalDivida += op.NominalValue
		}
	}
	for _, r := range s.Receipts {
		if opIDs[r.OperationID] {
			stats.Receipts = append(stats.Receipts, r)
		}
	}
	sortReceiptsNewestFirst(stats.Receipts)
	stats.LimiteDisponivel = c.LimiteCredito - stats.TotalDivida
	return stats, nil
}

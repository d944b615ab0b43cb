package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/infra/cache"
	"github.com/caribe/factoring-bfa-go/internal/infra/observability"
	"github.com/caribe/factoring-bfa-go/internal/infra/storage"
	"github.com/caribe/factoring-bfa-go/internal/service"

	"go.uber.org/zap"
)

var (
	admin    = domain.Actor{UserID: 1, Email: "admin@factoring.com", Role: domain.RoleAdministrador}
	operador = domain.Actor{UserID: 2, Email: "op@factoring.com", Role: domain.RoleOperador}
	analista = domain.Actor{UserID: 3, Email: "ana@factoring.com", Role: domain.RoleAnalista}
)

var (
	hashOnce  sync.Once
	adminHash string
)

// seedUsers writes the three users above with password "admin123".
func seedUsers(t *testing.T, store *storage.Memory) {
	t.Helper()
	hashOnce.Do(func() {
		h, err := service.HashPassword("admin123")
		if err != nil {
			panic(err)
		}
		adminHash = h
	})
	users := []domain.User{
		{ID: 1, Nome: "Admin", Email: admin.Email, Papel: domain.RoleAdministrador, PasswordHash: adminHash},
		{ID: 2, Nome: "Operador", Email: operador.Email, Papel: domain.RoleOperador, PasswordHash: adminHash},
		{ID: 3, Nome: "Analista", Email: analista.Email, Papel: domain.RoleAnalista, PasswordHash: adminHash},
	}
	put(t, store, domain.KeyUsers, users)
}

func put(t *testing.T, store *storage.Memory, key string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", key, err)
	}
	if err := store.Save(context.Background(), key, raw); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

// clockAt pins "now" to midday of day in UTC.
func clockAt(day string) domain.Clock {
	ts := domain.MustParseDate(day).Time().Add(12 * time.Hour)
	return func() time.Time { return ts }
}

type harness struct {
	svc     *service.FactoringService
	store   *storage.Memory
	metrics *observability.Metrics
}

func newHarness(t *testing.T, store *storage.Memory, today string) harness {
	t.Helper()
	dashboards := cache.New[domain.Dashboard](time.Minute)
	reports := cache.New[domain.Report](time.Minute)
	t.Cleanup(dashboards.Close)
	t.Cleanup(reports.Close)

	metrics := observability.NewMetrics()
	svc := service.NewFactoringService(service.Options{
		Store:      store,
		Dashboards: dashboards,
		Reports:    reports,
		Metrics:    metrics,
		Logger:     zap.NewNop(),
		Clock:      clockAt(today),
		Location:   time.UTC,
	})
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return harness{svc: svc, store: store, metrics: metrics}
}

func stored[T any](t *testing.T, store *storage.Memory, key string) T {
	t.Helper()
	var v T
	raw, err := store.Load(context.Background(), key)
	if err != nil {
		t.Fatalf("load %s: %v", key, err)
	}
	if raw == nil {
		t.Fatalf("expected %s to be persisted", key)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", key, err)
	}
	return v
}

func acme() domain.NewClient {
	return domain.NewClient{
		Nome:            "Acme Ltda",
		CPFCNPJ:         "12.345.678/0001-90",
		Email:           "financeiro@acme.com.br",
		LimiteCredito:   50000,
		TaxaJurosMensal: 3,
	}
}

func duplicata(clientID int, nominal float64, due string) domain.NewOperation {
	return domain.NewOperation{
		ClientID:     clientID,
		Type:         domain.TitleDuplicata,
		TitleNumber:  "DP-001",
		NominalValue: nominal,
		IssueDate:    domain.MustParseDate("2024-01-01"),
		DueDate:      domain.MustParseDate(due),
		Taxa:         3,
	}
}

// ============================================================
// Load
// ============================================================

func TestLoad_SeedsAdministrator(t *testing.T) {
	store := storage.NewMemory()
	svc := service.NewFactoringService(service.Options{
		Store: store,
		Clock: clockAt("2024-01-15"),
		Admin: service.AdminSeed{Nome: "Administrador", Email: "admin@factoring.com", Password: "admin123"},
	})
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	users := stored[[]domain.User](t, store, domain.KeyUsers)
	if len(users) != 1 || users[0].Papel != domain.RoleAdministrador {
		t.Fatalf("expected one seeded administrator, got %+v", users)
	}
	if users[0].PasswordHash == "" || users[0].PasswordHash == "admin123" {
		t.Error("expected a bcrypt hash, not the plain password")
	}
}

func TestLoad_MarksOverdueOnceAndPersists(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	put(t, store, domain.KeyOperations, []domain.Operation{
		{ID: 2, ClientID: 1, NominalValue: 500, NetValue: 485.44, Status: domain.StatusAberto, DueDate: domain.MustParseDate("2024-01-15")},
		{ID: 1, ClientID: 1, NominalValue: 1000, NetValue: 970.87, Status: domain.StatusAberto, DueDate: domain.MustParseDate("2024-01-10")},
	})

	h := newHarness(t, store, "2024-01-15")

	ops := stored[[]domain.Operation](t, store, domain.KeyOperations)
	if ops[1].Status != domain.StatusAtrasado {
		t.Errorf("expected past-due operation to be atrasado, got %s", ops[1].Status)
	}
	if ops[0].Status != domain.StatusAberto {
		t.Errorf("expected operation due today to stay aberto, got %s", ops[0].Status)
	}
	if got := h.metrics.GetSummary().StatusTransitions["aberto->atrasado"]; got != 1 {
		t.Errorf("expected 1 recorded transition, got %d", got)
	}
}

func TestLoad_StoreFailure(t *testing.T) {
	store := &failingLoadStore{Memory: storage.NewMemory()}
	svc := service.NewFactoringService(service.Options{Store: store, Clock: clockAt("2024-01-15")})

	err := svc.Load(context.Background())
	if err == nil {
		t.Fatal("expected load error")
	}
}

type failingLoadStore struct {
	*storage.Memory
}

func (f *failingLoadStore) Load(ctx context.Context, key string) ([]byte, error) {
	if key == domain.KeyReceipts {
		return nil, errors.New("connection reset")
	}
	return f.Memory.Load(ctx, key)
}

// ============================================================
// Mutations
// ============================================================

func TestLifecycle_ReceiptsCloseAndReopen(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-02-10")
	ctx := context.Background()

	c, err := h.svc.CreateClient(ctx, operador, acme())
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	op, err := h.svc.CreateOperation(ctx, operador, duplicata(c.ID, 1000, "2024-01-31"))
	if err != nil {
		t.Fatalf("create operation: %v", err)
	}

	alloc, err := h.svc.SuggestAllocation(ctx, analista, op.ID, 1000, false)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	r, err := h.svc.RegisterReceipt(ctx, operador, domain.NewReceipt{
		OperationID:        op.ID,
		DataRecebimento:    domain.MustParseDate("2024-02-10"),
		ValorTotalRecebido: alloc.Total,
		ValorPrincipalPago: alloc.Principal,
		ValorJurosPago:     alloc.Juros,
		FormaPagamento:     domain.PagamentoPix,
	})
	if err != nil {
		t.Fatalf("register receipt: %v", err)
	}

	detail, err := h.svc.GetOperation(ctx, analista, op.ID)
	if err != nil {
		t.Fatalf("get operation: %v", err)
	}
	if detail.Status != domain.StatusPago {
		t.Errorf("expected pago, got %s", detail.Status)
	}
	if ops := stored[[]domain.Operation](t, store, domain.KeyOperations); ops[0].Status != domain.StatusPago {
		t.Errorf("expected persisted pago, got %s", ops[0].Status)
	}

	if err := h.svc.DeleteReceipt(ctx, operador, r.ID); err != nil {
		t.Fatalf("delete receipt: %v", err)
	}
	detail, _ = h.svc.GetOperation(ctx, analista, op.ID)
	if detail.Status != domain.StatusAtrasado {
		t.Errorf("expected atrasado after reversal past due date, got %s", detail.Status)
	}
}

func TestCommit_FailedSaveKeepsSnapshot(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-01-15")
	ctx := context.Background()

	c, _ := h.svc.CreateClient(ctx, admin, acme())
	op, _ := h.svc.CreateOperation(ctx, admin, duplicata(c.ID, 1000, "2024-01-31"))
	before := h.svc.Snapshot()

	store.FailSave = func(key string) error {
		if key == domain.KeyReceipts {
			return errors.New("disk full")
		}
		return nil
	}
	_, err := h.svc.RegisterReceipt(ctx, admin, domain.NewReceipt{
		OperationID:        op.ID,
		DataRecebimento:    domain.MustParseDate("2024-01-15"),
		ValorTotalRecebido: 1000,
		ValorPrincipalPago: 970.87,
		ValorJurosPago:     29.13,
		FormaPagamento:     domain.PagamentoBoleto,
	})
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if !reflect.DeepEqual(before, h.svc.Snapshot()) {
		t.Error("snapshot changed after a failed save")
	}
	if got := h.metrics.GetSummary().StoreErrors["memory"]; got != 1 {
		t.Errorf("expected 1 store error, got %d", got)
	}

	store.FailSave = nil
	r, err := h.svc.RegisterReceipt(ctx, admin, domain.NewReceipt{
		OperationID:        op.ID,
		DataRecebimento:    domain.MustParseDate("2024-01-15"),
		ValorTotalRecebido: 1000,
		ValorPrincipalPago: 970.87,
		ValorJurosPago:     29.13,
		FormaPagamento:     domain.PagamentoBoleto,
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if r.ID != 1 {
		t.Errorf("expected receipt id 1 after the failed attempt, got %d", r.ID)
	}
}

func TestDelete_UnknownIDsAreNoOps(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-01-15")
	ctx := context.Background()
	c, _ := h.svc.CreateClient(ctx, admin, acme())
	before := h.svc.Snapshot()

	store.FailSave = func(key string) error { return errors.New("no write expected") }

	if err := h.svc.DeleteClient(ctx, admin, c.ID+10); err != nil {
		t.Errorf("delete client: %v", err)
	}
	if err := h.svc.DeleteOperation(ctx, admin, 99); err != nil {
		t.Errorf("delete operation: %v", err)
	}
	if err := h.svc.DeleteReceipt(ctx, admin, 99); err != nil {
		t.Errorf("delete receipt: %v", err)
	}
	if err := h.svc.DeleteUser(ctx, admin, 99); err != nil {
		t.Errorf("delete user: %v", err)
	}
	if !reflect.DeepEqual(before, h.svc.Snapshot()) {
		t.Error("snapshot changed after deleting unknown ids")
	}
}

func TestDeleteClient_Cascades(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-01-15")
	ctx := context.Background()

	c, _ := h.svc.CreateClient(ctx, admin, acme())
	op, _ := h.svc.CreateOperation(ctx, admin, duplicata(c.ID, 1000, "2024-01-31"))
	if _, err := h.svc.RegisterReceipt(ctx, admin, domain.NewReceipt{
		OperationID:        op.ID,
		DataRecebimento:    domain.MustParseDate("2024-01-15"),
		ValorTotalRecebido: 100,
		ValorPrincipalPago: 97.09,
		ValorJurosPago:     2.91,
		FormaPagamento:     domain.PagamentoTransferencia,
	}); err != nil {
		t.Fatalf("register receipt: %v", err)
	}

	if err := h.svc.DeleteClient(ctx, admin, c.ID); err != nil {
		t.Fatalf("delete client: %v", err)
	}
	st := h.svc.Snapshot()
	if len(st.Clients) != 0 || len(st.Operations) != 0 || len(st.Receipts) != 0 {
		t.Errorf("expected empty collections, got %d/%d/%d", len(st.Clients), len(st.Operations), len(st.Receipts))
	}
	if receipts := stored[[]domain.Receipt](t, store, domain.KeyReceipts); len(receipts) != 0 {
		t.Errorf("expected persisted receipts to be empty, got %d", len(receipts))
	}
}

// ============================================================
// Authorization & validation
// ============================================================

func TestAuthorization_AnalistaIsReadOnly(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-01-15")
	ctx := context.Background()

	_, err := h.svc.CreateClient(ctx, analista, acme())
	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if forbidden.Action != string(domain.ActionManageClients) {
		t.Errorf("expected action %s, got %s", domain.ActionManageClients, forbidden.Action)
	}
	if err := h.svc.DismissReminder(ctx, analista, 1); !errors.As(err, &forbidden) {
		t.Errorf("expected ErrForbidden on dismiss, got %v", err)
	}
	if _, err := h.svc.ListClients(ctx, analista); err != nil {
		t.Errorf("expected analista to read clients, got %v", err)
	}
	if _, err := h.svc.Dashboard(ctx, analista); err != nil {
		t.Errorf("expected analista to read the dashboard, got %v", err)
	}
}

func TestAuthorization_OnlyAdministratorManagesUsers(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-01-15")

	_, err := h.svc.ListUsers(context.Background(), operador)
	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ErrForbidden for operador, got %v", err)
	}
	users, err := h.svc.ListUsers(context.Background(), admin)
	if err != nil || len(users) != 3 {
		t.Fatalf("expected 3 users, got %d (%v)", len(users), err)
	}
}

func TestValidation_ReportsJSONFieldNames(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-01-15")

	in := acme()
	in.Nome = ""
	_, err := h.svc.CreateClient(context.Background(), admin, in)
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if ve.Field != "nome" {
		t.Errorf("expected field nome, got %s", ve.Field)
	}

	_, err = h.svc.CreateOperation(context.Background(), admin, domain.NewOperation{ClientID: 1, Type: "nota", TitleNumber: "X"})
	if !errors.As(err, &ve) || ve.Field != "type" {
		t.Errorf("expected validation error on type, got %v", err)
	}
}

func TestUsers_SelfDeletionRejected(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-01-15")

	err := h.svc.DeleteUser(context.Background(), admin, admin.UserID)
	var self *domain.ErrSelfDeletion
	if !errors.As(err, &self) {
		t.Fatalf("expected ErrSelfDeletion, got %v", err)
	}
	if _, ok := h.svc.Snapshot().FindUser(admin.UserID); !ok {
		t.Error("administrator was removed")
	}
}

// ============================================================
// Derived views
// ============================================================

func TestDashboard_MemoizedUntilMutation(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-01-15")
	ctx := context.Background()

	first, _ := h.svc.Dashboard(ctx, analista)
	if _, err := h.svc.Dashboard(ctx, analista); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if rate := h.metrics.GetSummary().CacheHitRate; rate != 0.5 {
		t.Errorf("expected cache hit rate 0.5, got %v", rate)
	}

	c, _ := h.svc.CreateClient(ctx, admin, acme())
	if _, err := h.svc.CreateOperation(ctx, admin, duplicata(c.ID, 1000, "2024-01-31")); err != nil {
		t.Fatalf("create operation: %v", err)
	}
	after, _ := h.svc.Dashboard(ctx, analista)
	if first.TotalReceivables != 0 || after.TotalReceivables != 1000 {
		t.Errorf("expected receivables 0 then 1000, got %v then %v", first.TotalReceivables, after.TotalReceivables)
	}
	if len(after.DueSoon) != 1 {
		t.Errorf("expected one due item, got %d", len(after.DueSoon))
	}
}

func TestReport_RangeValidation(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-03-15")
	ctx := context.Background()

	rep, err := h.svc.Report(ctx, analista, domain.ReportRange{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if rep.Range.Start.String() != "2024-03-01" || rep.Range.End.String() != "2024-03-31" {
		t.Errorf("expected current month, got %s..%s", rep.Range.Start, rep.Range.End)
	}

	_, err = h.svc.Report(ctx, analista, domain.ReportRange{Start: domain.MustParseDate("2024-03-01")})
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) || ve.Field != "end" {
		t.Errorf("expected validation error on end, got %v", err)
	}
	_, err = h.svc.Report(ctx, analista, domain.ReportRange{
		Start: domain.MustParseDate("2024-03-31"),
		End:   domain.MustParseDate("2024-03-01"),
	})
	if !errors.As(err, &ve) {
		t.Errorf("expected validation error on inverted range, got %v", err)
	}
}

func TestReminders_DismissIsPersisted(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-01-28")
	ctx := context.Background()

	c, _ := h.svc.CreateClient(ctx, admin, acme())
	op, _ := h.svc.CreateOperation(ctx, admin, duplicata(c.ID, 1000, "2024-01-31"))

	reminders, _ := h.svc.ListReminders(ctx, analista)
	if len(reminders) != 1 || reminders[0].DaysLeft != 3 {
		t.Fatalf("expected one reminder 3 days out, got %+v", reminders)
	}
	if err := h.svc.DismissReminder(ctx, operador, op.ID); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if err := h.svc.DismissReminder(ctx, operador, op.ID); err != nil {
		t.Fatalf("second dismiss: %v", err)
	}
	reminders, _ = h.svc.ListReminders(ctx, analista)
	if len(reminders) != 0 {
		t.Errorf("expected no reminders after dismiss, got %d", len(reminders))
	}
	if ids := stored[[]int](t, store, domain.KeyDismissedReminders); len(ids) != 1 || ids[0] != op.ID {
		t.Errorf("expected persisted [%d], got %v", op.ID, ids)
	}

	var nf *domain.ErrNotFound
	if err := h.svc.DismissReminder(ctx, operador, 404); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCalculator_PrefillFromOperation(t *testing.T) {
	store := storage.NewMemory()
	seedUsers(t, store)
	h := newHarness(t, store, "2024-01-15")
	ctx := context.Background()

	c, _ := h.svc.CreateClient(ctx, admin, acme())
	op, _ := h.svc.CreateOperation(ctx, admin, duplicata(c.ID, 1030, "2024-01-31"))

	res, err := h.svc.Calculate(ctx, analista, domain.InterestInput{ClientID: c.ID, OperationID: op.ID})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !res.Locked {
		t.Error("expected result to be locked to the operation")
	}
	if res.Dias != 30 {
		t.Errorf("expected 30 days, got %d", res.Dias)
	}
	if res.Input.Capital != op.NetValue {
		t.Errorf("expected capital %v, got %v", op.NetValue, res.Input.Capital)
	}
}

package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-03-15", "2024-03-15", false},
		{" 2024-03-15 ", "2024-03-15", false},
		{"2024-03-15T23:30:00-03:00", "2024-03-15", false},
		{"15/03/2024", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		d, err := domain.ParseDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error, got %s", tt.in, d)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.in, err)
		}
		if d.String() != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.in, tt.want, d)
		}
	}
}

func TestDate_Arithmetic(t *testing.T) {
	d := domain.MustParseDate("2024-02-28")

	if got := d.AddDays(2).String(); got != "2024-03-01" {
		t.Errorf("expected 2024-03-01 across leap day, got %s", got)
	}
	if got := domain.MustParseDate("2024-04-01").DaysSince(d); got != 33 {
		t.Errorf("expected 33 days, got %d", got)
	}

	first, last := d.Month()
	if first.String() != "2024-02-01" || last.String() != "2024-02-29" {
		t.Errorf("expected 2024-02-01..2024-02-29, got %s..%s", first, last)
	}
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		Due domain.Date `json:"due"`
	}
	if err := json.Unmarshal([]byte(`{"due":"2024-03-15"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Due.String() != "2024-03-15" {
		t.Errorf("expected 2024-03-15, got %s", v.Due)
	}

	if err := json.Unmarshal([]byte(`{"due":""}`), &v); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !v.Due.IsZero() {
		t.Errorf("expected zero date, got %s", v.Due)
	}

	if err := json.Unmarshal([]byte(`{"due":"tomorrow"}`), &v); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestClock_TodayUsesLocation(t *testing.T) {
	// 01:30 UTC is still the previous day in São Paulo.
	clock := domain.Clock(func() time.Time {
		return time.Date(2024, 3, 15, 1, 30, 0, 0, time.UTC)
	})
	loc := time.FixedZone("BRT", -3*60*60)

	if got := clock.Today(loc).String(); got != "2024-03-14" {
		t.Errorf("expected 2024-03-14, got %s", got)
	}
	if got := clock.Today(nil).String(); got != "2024-03-15" {
		t.Errorf("expected 2024-03-15 in UTC, got %s", got)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := domain.Paginate(items, 2, 2)
	if len(p.Data) != 2 || p.Data[0] != 3 {
		t.Errorf("expected [3 4], got %v", p.Data)
	}
	if !p.HasMore {
		t.Error("expected has_more on page 2 of 3")
	}

	p = domain.Paginate(items, 9, 2)
	if p.Data == nil || len(p.Data) != 0 {
		t.Errorf("expected empty non-nil page, got %v", p.Data)
	}
	if p.Total != 5 {
		t.Errorf("expected total 5, got %d", p.Total)
	}

	p = domain.Paginate([]int(nil), 0, 0)
	if p.Page != 1 || p.Data == nil {
		t.Errorf("expected page 1 with empty data, got page %d data %v", p.Page, p.Data)
	}
}

func TestRole_Capabilities(t *testing.T) {
	if !domain.RoleAdministrador.Can(domain.ActionManageUsers) {
		t.Error("expected Administrador to manage users")
	}
	if domain.RoleOperador.Can(domain.ActionManageUsers) {
		t.Error("expected Operador not to manage users")
	}
	if domain.RoleAnalista.Can(domain.ActionManageClients) {
		t.Error("expected Analista to be read-only")
	}
	if !domain.RoleAnalista.Can(domain.ActionRead) {
		t.Error("expected Analista to read")
	}
}

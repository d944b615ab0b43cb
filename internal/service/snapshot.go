package service

import (
	"encoding/json"
	"fmt"

	"github.com/caribe/factoring-bfa-go/internal/domain"
)

// encodeKey renders the collection stored under key. Empty collections
// are written as [] rather than null.
func encodeKey(st domain.State, key string) ([]byte, error) {
	var v any
	switch key {
	case domain.KeyClients:
		v = orEmpty(st.Clients)
	case domain.KeyOperations:
		v = orEmpty(st.Operations)
	case domain.KeyReceipts:
		v = orEmpty(st.Receipts)
	case domain.KeyUsers:
		v = orEmpty(st.Users)
	case domain.KeyDismissedReminders:
		v = orEmpty(st.DismissedReminders)
	case domain.KeySequences:
		v = st.Sequences
	default:
		return nil, fmt.Errorf("unknown snapshot key %q", key)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return b, nil
}

// decodeKey fills the collection stored under key. A nil raw value
// leaves the default in place.
func decodeKey(st *domain.State, key string, raw []byte) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var err error
	switch key {
	case domain.KeyClients:
		err = json.Unmarshal(raw, &st.Clients)
	case domain.KeyOperations:
		err = json.Unmarshal(raw, &st.Operations)
	case domain.KeyReceipts:
		err = json.Unmarshal(raw, &st.Receipts)
	case domain.KeyUsers:
		err = json.Unmarshal(raw, &st.Users)
	case domain.KeyDismissedReminders:
		err = json.Unmarshal(raw, &st.DismissedReminders)
	case domain.KeySequences:
		err = json.Unmarshal(raw, &st.Sequences)
	default:
		return fmt.Errorf("unknown snapshot key %q", key)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Package supabase stores state snapshots in a Supabase (PostgREST) table:
//
//	create table factoring_kv (
//	  key        text primary key,
//	  value      jsonb not null,
//	  updated_at timestamptz not null default now()
//	);
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Table is the PostgREST resource holding the snapshots.
const Table = "factoring_kv"

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	bulkhead       *resilience.Bulkhead
	cfg            resilience.Config
	logger         *zap.Logger
	now            func() time.Time
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		bulkhead:       resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
	}
}

func (c *Client) Name() string { return "supabase" }

type kvRow struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Load fetches the snapshot stored under key.
func (c *Client) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Load")
	defer span.End()
	span.SetAttributes(attribute.String("storage.key", key))

	var value []byte
	err := c.call(ctx, func() error {
		path := fmt.Sprintf("%s?key=eq.%s&select=key,value,updated_at&limit=1", Table, url.QueryEscape(key))
		body, err := c.doRequest(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return err
		}
		if body == nil {
			return nil
		}

		var rows []kvRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return resilience.Permanent(fmt.Errorf("failed to decode %s: %w", Table, err))
		}
		if len(rows) > 0 {
			value = rows[0].Value
		}
		return nil
	})
	if err != nil {
		return nil, c.wrap("load", err)
	}
	return value, nil
}

// Save upserts the snapshot under key.
func (c *Client) Save(ctx context.Context, key string, value []byte) error {
	ctx, span := tracer.Start(ctx, "Supabase.Save")
	defer span.End()
	span.SetAttributes(attribute.String("storage.key", key), attribute.Int("storage.bytes", len(value)))

	row, err := json.Marshal(kvRow{Key: key, Value: value, UpdatedAt: c.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode %s row: %w", key, err)
	}

	err = c.call(ctx, func() error {
		_, err := c.doRequest(ctx, http.MethodPost, Table+"?on_conflict=key", row,
			"resolution=merge-duplicates,return=minimal")
		return err
	})
	if err != nil {
		return c.wrap("save", err)
	}
	c.logger.Debug("supabase: snapshot saved", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// Ping checks the table is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, Table+"?select=key&limit=1", nil, "")
	return err
}

func (c *Client) call(ctx context.Context, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()
	return resilience.Call(ctx, c.cb, c.cfg, fn)
}

func (c *Client) wrap(op string, err error) error {
	var open *domain.ErrCircuitOpen
	if errors.As(err, &open) {
		return err
	}
	return &domain.ErrExternalService{Service: "supabase/" + op, Err: err}
}

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tcg-labeler/internal/carrier"
	"tcg-labeler/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// FailingOrderNumber makes the fake carrier reject shipment creation.
const FailingOrderNumber = "REJECT-ME"

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, connection pool and schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"orders", "batches", "user_settings"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// FakeCarrier is an in-process stand-in for the shipping API. Every shipment
// is quoted a USPS First rate of 0.73 and a Priority rate of 9.35.
type FakeCarrier struct {
	Server    *httptest.Server
	created   atomic.Int64
	purchased atomic.Int64
}

// NewFakeCarrier starts a fake carrier that lives for the duration of the test.
func NewFakeCarrier(t *testing.T) *FakeCarrier {
	t.Helper()

	fc := &FakeCarrier{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /shipments", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Shipment carrier.ShipmentRequest `json:"shipment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":{"code":"BAD_REQUEST","message":"bad json"}}`, http.StatusBadRequest)
			return
		}

		orderNumber := body.Shipment.Options.PrintCustom1
		if orderNumber == FailingOrderNumber {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":{"code":"ADDRESS.VERIFY.FAILURE","message":"address not found"}}`))
			return
		}

		fc.created.Add(1)
		id := "shp_" + orderNumber
		writeCarrierJSON(w, map[string]any{
			"id": id,
			"rates": []map[string]any{
				{"id": "rate_pri_" + orderNumber, "shipment_id": id, "carrier": "USPS", "service": "Priority", "rate": "9.35"},
				{"id": "rate_first_" + orderNumber, "shipment_id": id, "carrier": "USPS", "service": "First", "rate": "0.73"},
			},
			"to_address": body.Shipment.ToAddress,
		})
	})

	mux.HandleFunc("POST /shipments/{id}/buy", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Rate carrier.Rate `json:"rate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":{"code":"BAD_REQUEST","message":"bad json"}}`, http.StatusBadRequest)
			return
		}

		fc.purchased.Add(1)
		id := r.PathValue("id")
		orderNumber := strings.TrimPrefix(id, "shp_")
		writeCarrierJSON(w, map[string]any{
			"id":            id,
			"tracking_code": "9400" + orderNumber,
			"postage_label": map[string]any{"label_url": "https://labels.test/" + orderNumber + ".pdf"},
			"selected_rate": body.Rate,
			"to_address":    map[string]any{"name": "Recipient " + orderNumber},
		})
	})

	fc.Server = httptest.NewServer(mux)
	t.Cleanup(fc.Server.Close)

	return fc
}

// Purchased returns how many labels were bought.
func (fc *FakeCarrier) Purchased() int64 { return fc.purchased.Load() }

// Created returns how many shipments were created.
func (fc *FakeCarrier) Created() int64 { return fc.created.Load() }

func writeCarrierJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

package adscost

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/delivery-system/internal/failure"
)

func TestGetCostsForPeriod_NilClient(t *testing.T) {
	var c *Client

	costs, err := c.GetCostsForPeriod(context.Background(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("nil client must not fail: %v", err)
	}
	if len(costs) != 0 {
		t.Fatalf("nil client must return empty costs, got %v", costs)
	}
}

func TestGetCostsForPeriod_OK(t *testing.T) {
	shopA := uuid.New()
	shopB := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ads/costs" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("from") == "" || r.URL.Query().Get("to") == "" {
			t.Fatalf("from/to query params required, got %s", r.URL.RawQuery)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"shop_id": "` + shopA.String() + `", "total_cost": 30.5},
			{"shop_id": "` + shopB.String() + `", "total_cost": 10}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	costs, err := c.GetCostsForPeriod(context.Background(), time.Now().AddDate(0, 0, -7), time.Now())
	if err != nil {
		t.Fatalf("GetCostsForPeriod: %v", err)
	}

	if costs[shopA] != 3050 {
		t.Fatalf("shop A cost = %d, want 3050", costs[shopA])
	}
	if costs[shopB] != 1000 {
		t.Fatalf("shop B cost = %d, want 1000", costs[shopB])
	}
}

func TestGetCostsForPeriod_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	costs, err := c.GetCostsForPeriod(context.Background(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("GetCostsForPeriod: %v", err)
	}
	if len(costs) != 0 {
		t.Fatalf("expected empty costs, got %v", costs)
	}
}

func TestGetCostsForPeriod_ServerErrorIsNetworkFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.httpClient.RetryMax = 1

	_, err := c.GetCostsForPeriod(context.Background(), time.Now(), time.Now())
	if !failure.IsKind(err, failure.KindNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
	if calls < 2 {
		t.Fatalf("transient server errors must be retried, got %d calls", calls)
	}
}

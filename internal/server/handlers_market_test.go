package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/xuanruli/apex-trade/internal/models"
)

func TestHandleAsset(t *testing.T) {
	a := newTestApp()
	a.MarketService = &mockMarketService{
		latestClose: func(_ context.Context, symbol string) (float64, bool, error) {
			if symbol != "AAPL" {
				t.Errorf("symbol = %s, want AAPL", symbol)
			}
			return 187.25, true, nil
		},
	}
	handler := NewServer(a).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/asset?symbol=aapl",
		bearerToken(a, "acct-1", "alice", "trader"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Symbol != "AAPL" || resp.Price != 187.25 {
		t.Errorf("resp = %+v, want {AAPL 187.25}", resp)
	}
}

func TestHandleAssetMissingSymbol(t *testing.T) {
	a := newTestApp()
	handler := NewServer(a).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/asset",
		bearerToken(a, "acct-1", "alice", "trader"), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAssetUnknownSymbol(t *testing.T) {
	a := newTestApp()
	a.MarketService = &mockMarketService{
		latestClose: func(_ context.Context, _ string) (float64, bool, error) {
			return 0, false, nil
		},
	}
	handler := NewServer(a).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/asset?symbol=ZZZZ",
		bearerToken(a, "acct-1", "alice", "trader"), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleAssetStoreError(t *testing.T) {
	a := newTestApp()
	a.MarketService = &mockMarketService{
		latestClose: func(_ context.Context, _ string) (float64, bool, error) {
			return 0, false, fmt.Errorf("%w: provider unavailable", models.ErrUpstream)
		},
	}
	handler := NewServer(a).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/asset?symbol=AAPL",
		bearerToken(a, "acct-1", "alice", "trader"), "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xuanruli/apex-trade/internal/models"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient("test-key", WithBaseURL(server.URL), WithRateLimit(1000))
	return client, server
}

func TestGetDailySeries(t *testing.T) {
	var gotQuery map[string]string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"function":   r.URL.Query().Get("function"),
			"symbol":     r.URL.Query().Get("symbol"),
			"apikey":     r.URL.Query().Get("apikey"),
			"outputsize": r.URL.Query().Get("outputsize"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Time Series (Daily)": map[string]interface{}{
				"2026-03-02": map[string]string{
					"1. open": "151.00", "2. high": "153.00", "3. low": "150.00",
					"4. close": "152.00", "5. adjusted close": "152.00", "6. volume": "1200",
				},
				"2026-03-01": map[string]string{
					"1. open": "149.00", "2. high": "151.00", "3. low": "148.00",
					"4. close": "150.00", "5. adjusted close": "150.00", "6. volume": "1000",
				},
			},
		})
	})
	defer server.Close()

	bars, err := client.GetDailySeries(context.Background(), "AAPL", time.Time{})
	if err != nil {
		t.Fatalf("GetDailySeries: %v", err)
	}

	if gotQuery["function"] != "TIME_SERIES_DAILY_ADJUSTED" {
		t.Errorf("function = %s", gotQuery["function"])
	}
	if gotQuery["symbol"] != "AAPL" || gotQuery["apikey"] != "test-key" {
		t.Errorf("query = %v", gotQuery)
	}

	if len(bars) != 2 {
		t.Fatalf("len(bars) = %d, want 2", len(bars))
	}
	// Date ascending
	if !bars[0].Date.Before(bars[1].Date) {
		t.Error("bars not in date order")
	}
	if bars[0].Close != 150 || bars[1].Close != 152 {
		t.Errorf("closes = [%v, %v], want [150, 152]", bars[0].Close, bars[1].Close)
	}
	if bars[1].Volume != 1200 {
		t.Errorf("Volume = %d, want 1200", bars[1].Volume)
	}
	if bars[0].Symbol != "AAPL" {
		t.Errorf("Symbol = %s, want AAPL", bars[0].Symbol)
	}
}

func TestGetDailySeriesSinceFilter(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Time Series (Daily)": map[string]interface{}{
				"2026-03-01": map[string]string{"4. close": "150.00", "5. adjusted close": "150.00", "6. volume": "1000"},
				"2026-03-02": map[string]string{"4. close": "152.00", "5. adjusted close": "152.00", "6. volume": "1200"},
			},
		})
	})
	defer server.Close()

	since := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	bars, err := client.GetDailySeries(context.Background(), "AAPL", since)
	if err != nil {
		t.Fatalf("GetDailySeries: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("len(bars) = %d, want 1", len(bars))
	}
	if bars[0].Close != 152 {
		t.Errorf("Close = %v, want 152", bars[0].Close)
	}
}

func TestGetDailySeriesThrottled(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day.",
		})
	})
	defer server.Close()

	_, err := client.GetDailySeries(context.Background(), "AAPL", time.Time{})
	if !errors.Is(err, models.ErrUpstream) {
		t.Errorf("got %v, want ErrUpstream", err)
	}
}

func TestGetDailySeriesBadSymbol(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"Error Message": "Invalid API call. Please retry or visit the documentation.",
		})
	})
	defer server.Close()

	_, err := client.GetDailySeries(context.Background(), "ZZZZZZ", time.Time{})
	if !errors.Is(err, models.ErrUpstream) {
		t.Errorf("got %v, want ErrUpstream", err)
	}
}

func TestGetDailySeriesHTTPError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	})
	defer server.Close()

	_, err := client.GetDailySeries(context.Background(), "AAPL", time.Time{})
	if !errors.Is(err, models.ErrUpstream) {
		t.Errorf("got %v, want ErrUpstream", err)
	}
}

func TestFlexFloat64(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`"152.00"`, 152},
		{`152.5`, 152.5},
		{`""`, 0},
		{`"N/A"`, 0},
		{`"garbage"`, 0},
	}
	for _, tc := range cases {
		var f flexFloat64
		if err := json.Unmarshal([]byte(tc.in), &f); err != nil {
			t.Errorf("Unmarshal(%s): %v", tc.in, err)
			continue
		}
		if float64(f) != tc.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tc.in, float64(f), tc.want)
		}
	}
}

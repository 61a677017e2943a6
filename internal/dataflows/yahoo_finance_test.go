package dataflows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/shopspring/decimal"

	"github.com/dyike/CandleCorr/config"
	"github.com/dyike/CandleCorr/models"
)

func newTestYahooFinanceClient(t *testing.T, handler http.HandlerFunc) *YahooFinanceClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.YahooBaseURL = srv.URL
	client, err := NewYahooFinanceClient(cfg)
	if err != nil {
		t.Fatalf("NewYahooFinanceClient: %v", err)
	}
	return client
}

func TestChartBars(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	d := decimal.NewFromFloat

	cases := []struct {
		name  string
		raw   []*finance.ChartBar
		dates []string
		adj   []float64
	}{
		{
			name: "maps fields",
			raw: []*finance.ChartBar{
				{Open: d(184.22), High: d(185.88), Low: d(183.43), Close: d(184.25), AdjClose: d(183.31), Volume: 58414500, Timestamp: 1704292200},
			},
			dates: []string{"2024-01-03"},
			adj:   []float64{183.31},
		},
		{
			name: "sorts and keeps last duplicate",
			raw: []*finance.ChartBar{
				{Close: d(2), Timestamp: 1704292200},
				{Close: d(1), Timestamp: 1704205800},
				{Close: d(3), Timestamp: 1704292200 + 3600},
			},
			dates: []string{"2024-01-02", "2024-01-03"},
			adj:   []float64{1, 3},
		},
		{
			name: "drops null rows",
			raw: []*finance.ChartBar{
				nil,
				{Open: d(1), Timestamp: 1704205800},
				{Close: d(5), AdjClose: d(4.5), Timestamp: 1704292200},
			},
			dates: []string{"2024-01-03"},
			adj:   []float64{4.5},
		},
		{
			name: "empty",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bars := chartBars(tc.raw, ny)
			if len(bars) != len(tc.dates) {
				t.Fatalf("expected %d bars, got %d", len(tc.dates), len(bars))
			}
			for i, bar := range bars {
				if got := bar.Date.Format(models.DateLayout); got != tc.dates[i] {
					t.Errorf("bar %d date %s, want %s", i, got, tc.dates[i])
				}
				if got := bar.AdjClose.InexactFloat64(); got != tc.adj[i] {
					t.Errorf("bar %d adj close %v, want %v", i, got, tc.adj[i])
				}
			}
		})
	}

	bars := chartBars([]*finance.ChartBar{
		{Open: d(184.22), High: d(185.88), Low: d(183.43), Close: d(184.25), Volume: 58414500, Timestamp: 1704292200},
	}, ny)
	bar := bars[0]
	if !bar.Open.Equal(d(184.22)) || !bar.High.Equal(d(185.88)) || !bar.Low.Equal(d(183.43)) {
		t.Errorf("unexpected prices %+v", bar)
	}
	if bar.Volume != 58414500 {
		t.Errorf("unexpected volume %d", bar.Volume)
	}
	if !bar.Date.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, ny)) {
		t.Errorf("date should be midnight of the trading day, got %s", bar.Date)
	}
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{finance.CreateRemoteErrorS("error response recieved from upstream api"), true},
		{finance.CreateRemoteErrorS("no results in chart response"), true},
		{&finance.YfinError{Code: "Not Found", Description: "No data found, symbol may be delisted"}, true},
		{errors.New("dial tcp 127.0.0.1:443: connect: connection refused"), false},
		{finance.CreateChartTimeError(), false},
	}
	for _, tc := range cases {
		if got := isNotFound(tc.err); got != tc.want {
			t.Errorf("isNotFound(%q) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestYahooFinanceClientHistory(t *testing.T) {
	var gotPath string
	client := newTestYahooFinanceClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(tencentChart))
	})

	h, err := client.History(context.Background(), "0700.hk")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if gotPath != "/v8/finance/chart/0700.HK" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if h.Symbol != "0700.HK" || h.Len() != 2 {
		t.Fatalf("unexpected history %s with %d bars", h.Symbol, h.Len())
	}
	if got := h.FirstDate().Format(models.DateLayout); got != "2024-01-02" {
		t.Errorf("first bar labelled %s, want 2024-01-02", got)
	}
	if h.Bars[1].Volume != 17250000 {
		t.Errorf("unexpected volume %d", h.Bars[1].Volume)
	}
}

func TestYahooFinanceClientNoData(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"unknown symbol": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(notFoundChart))
		},
		"only null rows": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, strings.NewReplacer("292.0", "null", "289.4", "null", "288.4", "null", "286.0", "null").Replace(tencentChart))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestYahooFinanceClient(t, handler)
			if _, err := client.History(context.Background(), "0700.HK"); !errors.Is(err, ErrNoData) {
				t.Fatalf("expected ErrNoData, got %v", err)
			}
		})
	}
}

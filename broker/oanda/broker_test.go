package oanda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shine15/iridium-engine/broker"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/accounts/001-001-1234567-001/summary", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"account": map[string]any{
				"currency":         "USD",
				"balance":          "10000.0000",
				"NAV":              "10050.0000",
				"marginUsed":       "200.0000",
				"marginAvailable":  "9850.0000",
			},
		})
	}))
	defer srv.Close()

	b := &OandaBroker{
		Client:    &Client{BaseURL: srv.URL, Token: "test-token", HTTP: srv.Client()},
		AccountID: "001-001-1234567-001",
	}

	acct, err := b.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USD", acct.Currency)
	assert.InDelta(t, 10000.0, acct.Balance, 1e-9)
	assert.InDelta(t, 10050.0, acct.Equity, 1e-9)
	assert.InDelta(t, 200.0, acct.MarginUsed, 1e-9)
	assert.InDelta(t, 5025.0, acct.MarginLevel, 1e-6)
}

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EUR_USD", r.URL.Query().Get("instruments"))
		json.NewEncoder(w).Encode(map[string]any{
			"prices": []map[string]any{
				{
					"instrument": "EUR_USD",
					"bids":       []map[string]any{{"price": "1.09980"}},
					"asks":       []map[string]any{{"price": "1.10000"}},
				},
			},
		})
	}))
	defer srv.Close()

	b := &OandaBroker{
		Client:    &Client{BaseURL: srv.URL, Token: "test-token", HTTP: srv.Client()},
		AccountID: "001",
	}

	q, err := b.GetQuote(context.Background(), instrument.MustNew("EUR_USD"))
	require.NoError(t, err)
	assert.InDelta(t, 1.0998, q.Bid, 1e-9)
	assert.InDelta(t, 1.1000, q.Ask, 1e-9)
}

func TestGetQuoteNoPricesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"prices": []map[string]any{}})
	}))
	defer srv.Close()

	b := &OandaBroker{Client: &Client{BaseURL: srv.URL, Token: "t", HTTP: srv.Client()}, AccountID: "001"}
	_, err := b.GetQuote(context.Background(), instrument.MustNew("EUR_USD"))
	assert.Error(t, err)
}

func TestCreateMarketOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/accounts/001/orders", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		order := body["order"].(map[string]any)
		assert.Equal(t, "MARKET", order["type"])
		assert.Equal(t, "1000", order["units"])
		assert.Contains(t, order, "stopLossOnFill")

		json.NewEncoder(w).Encode(map[string]any{
			"orderFillTransaction": map[string]any{
				"tradeOpened": map[string]any{"tradeID": "T1", "units": "1000"},
				"price":       "1.10000",
			},
		})
	}))
	defer srv.Close()

	b := &OandaBroker{Client: &Client{BaseURL: srv.URL, Token: "t", HTTP: srv.Client()}, AccountID: "001"}

	sl := 1.0950
	fill, err := b.CreateMarketOrder(context.Background(), broker.MarketOrderRequest{
		Instrument: instrument.MustNew("EUR_USD"),
		Units:      1000,
		StopLoss:   &sl,
	})
	require.NoError(t, err)
	assert.Equal(t, "T1", fill.TradeID)
	assert.Equal(t, int64(1000), fill.Units)
	assert.InDelta(t, 1.10000, fill.Price, 1e-9)
}

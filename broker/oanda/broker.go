package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shine15/iridium-engine/broker"
	"github.com/shine15/iridium-engine/instrument"
)

// OandaBroker implements broker.Broker against the OANDA v20 REST API.
type OandaBroker struct {
	Client    *Client
	AccountID string
}

var _ broker.Broker = (*OandaBroker)(nil)

type accountSummaryResp struct {
	Account struct {
		Currency    string `json:"currency"`
		Balance     string `json:"balance"`
		NAV         string `json:"NAV"`
		MarginUsed  string `json:"marginUsed"`
		MarginAvail string `json:"marginAvailable"`
	} `json:"account"`
}

// GetAccount fetches the account summary.
func (b *OandaBroker) GetAccount(ctx context.Context) (broker.Account, error) {
	body, err := b.Client.Get(ctx, fmt.Sprintf("/v3/accounts/%s/summary", b.AccountID), nil)
	if err != nil {
		return broker.Account{}, err
	}
	defer body.Close()

	var resp accountSummaryResp
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return broker.Account{}, fmt.Errorf("oanda: decode account summary: %w", err)
	}

	balance := parseFloatOrZero(resp.Account.Balance)
	nav := parseFloatOrZero(resp.Account.NAV)
	marginUsed := parseFloatOrZero(resp.Account.MarginUsed)
	marginAvail := parseFloatOrZero(resp.Account.MarginAvail)

	var level float64
	if marginUsed > 0 {
		level = nav / marginUsed * 100
	}

	return broker.Account{
		ID:          b.AccountID,
		Currency:    resp.Account.Currency,
		Balance:     balance,
		Equity:      nav,
		MarginUsed:  marginUsed,
		FreeMargin:  marginAvail,
		MarginLevel: level,
	}, nil
}

type pricingResp struct {
	Prices []struct {
		Instrument string `json:"instrument"`
		Bids       []struct {
			Price string `json:"price"`
		} `json:"bids"`
		Asks []struct {
			Price string `json:"price"`
		} `json:"asks"`
		Time string `json:"time"`
	} `json:"prices"`
}

// GetQuote fetches the current bid/ask for in.
func (b *OandaBroker) GetQuote(ctx context.Context, in instrument.Instrument) (broker.Quote, error) {
	body, err := b.Client.Get(ctx, fmt.Sprintf("/v3/accounts/%s/pricing", b.AccountID), map[string]string{
		"instruments": in.Name(),
	})
	if err != nil {
		return broker.Quote{}, err
	}
	defer body.Close()

	var resp pricingResp
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return broker.Quote{}, fmt.Errorf("oanda: decode pricing: %w", err)
	}
	if len(resp.Prices) == 0 || len(resp.Prices[0].Bids) == 0 || len(resp.Prices[0].Asks) == 0 {
		return broker.Quote{}, fmt.Errorf("oanda: no pricing for %s", in.Name())
	}

	p := resp.Prices[0]
	return broker.Quote{
		Bid: parseFloatOrZero(p.Bids[0].Price),
		Ask: parseFloatOrZero(p.Asks[0].Price),
	}, nil
}

type orderCreateResp struct {
	OrderFillTransaction struct {
		TradeOpened struct {
			TradeID string `json:"tradeID"`
			Units   string `json:"units"`
		} `json:"tradeOpened"`
		Price string `json:"price"`
	} `json:"orderFillTransaction"`
}

// CreateMarketOrder submits a market order via the OANDA orders
// endpoint, attaching stop-loss/take-profit on-fill orders when set.
func (b *OandaBroker) CreateMarketOrder(ctx context.Context, req broker.MarketOrderRequest) (broker.OrderFill, error) {
	orderBody := map[string]any{
		"type":         "MARKET",
		"instrument":   req.Instrument.Name(),
		"units":        strconv.FormatInt(req.Units, 10),
		"timeInForce":  "FOK",
		"positionFill": "DEFAULT",
	}
	decimals := req.Instrument.PipDecimals() + 1
	if req.StopLoss != nil {
		orderBody["stopLossOnFill"] = map[string]any{
			"price": strconv.FormatFloat(*req.StopLoss, 'f', decimals, 64),
		}
	}
	if req.TakeProfit != nil {
		orderBody["takeProfitOnFill"] = map[string]any{
			"price": strconv.FormatFloat(*req.TakeProfit, 'f', decimals, 64),
		}
	}

	payload, err := json.Marshal(map[string]any{"order": orderBody})
	if err != nil {
		return broker.OrderFill{}, err
	}

	body, err := b.Client.Post(ctx, fmt.Sprintf("/v3/accounts/%s/orders", b.AccountID), payload)
	if err != nil {
		return broker.OrderFill{}, err
	}
	defer body.Close()

	var resp orderCreateResp
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return broker.OrderFill{}, fmt.Errorf("oanda: decode order fill: %w", err)
	}

	units, _ := strconv.ParseInt(resp.OrderFillTransaction.TradeOpened.Units, 10, 64)
	return broker.OrderFill{
		TradeID:    resp.OrderFillTransaction.TradeOpened.TradeID,
		Instrument: req.Instrument.Name(),
		Units:      units,
		Price:      parseFloatOrZero(resp.OrderFillTransaction.Price),
	}, nil
}

func parseFloatOrZero(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

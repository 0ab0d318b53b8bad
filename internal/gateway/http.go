package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"escrowhub/pkg/circuitbreaker"
	"escrowhub/pkg/metrics"
	"escrowhub/pkg/trace"
)

const IdempotencyHeader = "Idempotency-Key"

// HTTPGateway talks to an external token-transfer service.
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cb:         circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
	}
}

type transferRequest struct {
	Token  string          `json:"token"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (g *HTTPGateway) Transfer(ctx context.Context, token, from, to string, amount decimal.Decimal) error {
	body, err := json.Marshal(transferRequest{Token: token, From: from, To: to, Amount: amount})
	if err != nil {
		return err
	}

	// declines do not count as breaker failures
	var declined error
	err = g.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transfers", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if key := IdempotencyKeyFrom(ctx); key != "" {
			req.Header.Set(IdempotencyHeader, key)
		}
		setTrace(ctx, req)

		resp, err := g.do(req, "transfer")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			return nil
		case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusConflict:
			declined = fmt.Errorf("%w: %s", ErrInsufficientFunds, decodeError(resp))
			return nil
		default:
			return fmt.Errorf("transfer service returned %d: %s", resp.StatusCode, decodeError(resp))
		}
	})
	if err != nil {
		return err
	}
	return declined
}

func (g *HTTPGateway) Balance(ctx context.Context, token, address string) (decimal.Decimal, error) {
	var out balanceResponse
	err := g.cb.Execute(func() error {
		u := fmt.Sprintf("%s/balances/%s/%s", g.baseURL, url.PathEscape(token), url.PathEscape(address))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		setTrace(ctx, req)

		resp, err := g.do(req, "balance")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("balance service returned %d: %s", resp.StatusCode, decodeError(resp))
		}
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return out.Balance, nil
}

func (g *HTTPGateway) do(req *http.Request, call string) (*http.Response, error) {
	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		metrics.RecordGatewayCall(call, "error", time.Since(start))
		return nil, err
	}
	metrics.RecordGatewayCall(call, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))
	return resp, nil
}

func setTrace(ctx context.Context, req *http.Request) {
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName, traceID)
	}
}

func decodeError(resp *http.Response) string {
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
		return http.StatusText(resp.StatusCode)
	}
	return e.Error
}

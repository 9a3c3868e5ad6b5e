package adapter

import (
	"context"
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/rollover-fees/internal/config"
	apperrors "github.com/rollover-fees/internal/errors"
	"github.com/rollover-fees/internal/logging"
	"github.com/rollover-fees/internal/types"
)

const (
	// LedgersPath is the private endpoint returning ledger history
	LedgersPath = "/0/private/Ledgers"

	providerName = "kraken"
)

// formField is one key=value pair of a url-encoded body
type formField struct {
	key   string
	value string
}

// encodeForm joins fields as key=value pairs with & in the given order.
// The result is both signed and sent, so it must be produced exactly once.
func encodeForm(fields []formField) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, url.QueryEscape(f.key)+"="+url.QueryEscape(f.value))
	}
	return strings.Join(parts, "&")
}

// KrakenClient calls the exchange's private REST API with one shared HTTP client
type KrakenClient struct {
	apiKey  string
	signer  *Signer
	nonces  NonceSource
	client  *resty.Client
	timeout time.Duration
}

// NewKrakenClient creates a client from validated configuration
func NewKrakenClient(cfg *config.KrakenConfig, nonces NonceSource) (*KrakenClient, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewConfigError("api key is empty", nil)
	}
	signer, err := NewSigner(cfg.APISecret)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid api secret", err)
	}
	if nonces == nil {
		nonces = NewClockNonce()
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent)

	return &KrakenClient{
		apiKey:  cfg.APIKey,
		signer:  signer,
		nonces:  nonces,
		client:  client,
		timeout: cfg.Timeout,
	}, nil
}

// FetchLedgers posts a signed Ledgers request and decodes the response
func (c *KrakenClient) FetchLedgers(ctx context.Context) (*types.Ledger, error) {
	logger := logging.FromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	nonce, err := c.nonces.Next(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to obtain nonce", err)
	}

	body := encodeForm([]formField{{key: "nonce", value: strconv.FormatInt(nonce, 10)}})
	signature := c.signer.Sign(LedgersPath, body)

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("API-Key", c.apiKey).
		SetHeader("API-Sign", signature).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(body).
		Post(LedgersPath)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	logger.WithFields(map[string]interface{}{
		"path":     LedgersPath,
		"status":   resp.StatusCode(),
		"duration": time.Since(start).String(),
	}).Debug("Exchange request completed")

	if !resp.IsSuccess() {
		return nil, apperrors.NewProviderStatusError(providerName, resp.StatusCode())
	}

	ledger, err := decodeLedger(resp.Body())
	if err != nil {
		return nil, apperrors.NewProviderParseError(providerName, err)
	}
	return ledger, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewProviderTimeoutError(providerName, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewProviderTimeoutError(providerName, err)
	}
	return apperrors.NewProviderError(providerName, err)
}

// decodeLedger decodes {"error":[...],"result":{...}}. Entries keep document
// order. The result may be the entry map itself or wrap it under "ledger".
func decodeLedger(body []byte) (*types.Ledger, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, errors.Wrap(err, "response is not JSON")
	}
	if v.Type() != fastjson.TypeObject {
		return nil, errors.Errorf("response is a JSON %s, want object", v.Type())
	}

	ledger := &types.Ledger{Entries: []types.LedgerEntry{}}

	if ev := v.Get("error"); ev != nil && ev.Type() != fastjson.TypeNull {
		items, err := ev.Array()
		if err != nil {
			return nil, errors.Wrap(err, "error field")
		}
		for _, item := range items {
			if item.Type() == fastjson.TypeString {
				ledger.Errors = append(ledger.Errors, string(item.GetStringBytes()))
			} else {
				ledger.Errors = append(ledger.Errors, item.String())
			}
		}
	}
	if ledger.HasErrors() {
		return ledger, nil
	}

	rv := v.Get("result")
	if rv == nil || rv.Type() == fastjson.TypeNull {
		return ledger, nil
	}
	if inner := rv.Get("ledger"); inner != nil && inner.Type() == fastjson.TypeObject {
		rv = inner
	}

	entries, err := rv.Object()
	if err != nil {
		return nil, errors.Wrap(err, "result field")
	}
	entries.Visit(func(key []byte, ev *fastjson.Value) {
		ledger.Entries = append(ledger.Entries, decodeEntry(string(key), ev))
	})

	return ledger, nil
}

func decodeEntry(id string, v *fastjson.Value) types.LedgerEntry {
	entry := types.LedgerEntry{ID: id}
	if v.Type() != fastjson.TypeObject {
		entry.Problem = "entry is not an object"
		return entry
	}

	var problems []string
	entry.Type = types.LedgerType(v.GetStringBytes("type"))
	entry.RefID = string(v.GetStringBytes("refid"))
	entry.Subtype = string(v.GetStringBytes("subtype"))
	entry.Asset = string(v.GetStringBytes("asset"))
	entry.Amount = numericText(v.Get("amount"))
	entry.Fee = numericText(v.Get("fee"))
	entry.Balance = numericText(v.Get("balance"))

	if ts, problem := decodeTime(v.Get("time")); problem != "" {
		problems = append(problems, problem)
	} else {
		entry.Time = ts
	}

	entry.Problem = strings.Join(problems, "; ")
	return entry
}

// decodeTime reads a unix timestamp sent as a JSON number or numeric string.
// NaN, infinities and out-of-range values are rejected.
func decodeTime(v *fastjson.Value) (float64, string) {
	if v == nil {
		return 0, "time is missing"
	}

	var (
		ts  float64
		err error
	)
	switch v.Type() {
	case fastjson.TypeNumber:
		ts, err = v.Float64()
	case fastjson.TypeString:
		ts, err = strconv.ParseFloat(string(v.GetStringBytes()), 64)
	default:
		return 0, "time is not a number"
	}
	if err != nil {
		return 0, "time is not a number"
	}
	if math.IsNaN(ts) || math.IsInf(ts, 0) {
		return 0, "time is not a finite number"
	}
	return ts, ""
}

// numericText returns decimal values as text whether they were sent as JSON
// strings or numbers.
func numericText(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return string(v.MarshalTo(nil))
	default:
		return ""
	}
}

// internal/swap/client.go
package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/wallet"
)

// priceProbeSlippageBps is the slippage used for the one-token price
// probe; the probe never executes, so the exact value only shapes the
// quoted route.
const priceProbeSlippageBps = 50

// ClientConfig configures the quote/swap client.
type ClientConfig struct {
	QuoteAPIURL string
	RPCURL      string
	HTTPTimeout time.Duration
	Logger      *zap.Logger
}

// Client wraps the external quoting/swap-execution service and the
// Solana RPC endpoint used for balance lookups. It holds no trading
// state: every call is a pure request/response and safe for the caller
// to retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	rpcClient  *rpc.Client
	logger     *zap.Logger
}

// NewClient creates a quote/swap client.
func NewClient(cfg *ClientConfig) *Client {
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.QuoteAPIURL,
		rpcClient:  rpc.New(cfg.RPCURL),
		logger:     cfg.Logger.Named("swap"),
	}
}

// quoteResponse is the wire format of the quoting service. Amounts are
// decimal strings, as served by Jupiter-style APIs.
type quoteResponse struct {
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

// GetQuote asks the quoting service to price a swap. It fails with
// ErrQuoteUnavailable on any non-2xx response or malformed payload and
// performs no retries.
func (c *Client) GetQuote(ctx context.Context, params QuoteParams) (*Quote, error) {
	slippageBps := int(params.SlippagePercent * 100)

	q := url.Values{}
	q.Set("inputMint", params.InputMint)
	q.Set("outputMint", params.OutputMint)
	q.Set("amount", strconv.FormatUint(params.AmountRaw, 10))
	q.Set("slippageBps", strconv.Itoa(slippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", ErrQuoteUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrQuoteUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrQuoteUnavailable, resp.StatusCode, truncate(body))
	}

	var wire quoteResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", ErrQuoteUnavailable, err)
	}

	inAmount, err := strconv.ParseUint(wire.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed inAmount %q", ErrQuoteUnavailable, wire.InAmount)
	}
	outAmount, err := strconv.ParseUint(wire.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed outAmount %q", ErrQuoteUnavailable, wire.OutAmount)
	}

	return &Quote{
		InputMint:    wire.InputMint,
		OutputMint:   wire.OutputMint,
		InAmountRaw:  inAmount,
		OutAmountRaw: outAmount,
		SlippageBps:  slippageBps,
		payload:      json.RawMessage(body),
	}, nil
}

// swapRequest is the body sent to the swap-execution endpoint.
type swapRequest struct {
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	UserPublicKey    string          `json:"userPublicKey"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}

// swapResponse is the wire format of an executed swap.
type swapResponse struct {
	TxID      string `json:"txId"`
	InAmount  string `json:"inAmount"`
	OutAmount string `json:"outAmount"`
}

// ExecuteSwap submits the quote for execution, signed with the given
// wallet. It is a single atomic external operation: on a non-2xx
// response it fails with SwapFailedError and no partial-fill
// reconciliation is attempted.
func (c *Client) ExecuteSwap(ctx context.Context, quote *Quote, signer *wallet.Wallet) (*Fill, error) {
	if signer == nil {
		return nil, &SwapFailedError{Reason: "no signing wallet"}
	}

	reqBody, err := json.Marshal(swapRequest{
		QuoteResponse:    quote.payload,
		UserPublicKey:    signer.PublicKey.String(),
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return nil, &SwapFailedError{Reason: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(reqBody))
	if err != nil {
		return nil, &SwapFailedError{Reason: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SwapFailedError{Reason: "transport error", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SwapFailedError{Reason: "failed to read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SwapFailedError{Reason: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(body))}
	}

	var wire swapResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &SwapFailedError{Reason: "malformed payload", Err: err}
	}

	fill := &Fill{TxID: wire.TxID}

	// The service may report the actual filled amounts; fall back to the
	// quoted amounts when it does not.
	fill.InAmountRaw = parseAmountOr(wire.InAmount, quote.InAmountRaw)
	fill.OutAmountRaw = parseAmountOr(wire.OutAmount, quote.OutAmountRaw)
	fill.Price = executionPrice(quote.InputMint, fill.InAmountRaw, fill.OutAmountRaw)

	c.logger.Debug("Swap executed",
		zap.String("tx_id", fill.TxID),
		zap.Uint64("in_raw", fill.InAmountRaw),
		zap.Uint64("out_raw", fill.OutAmountRaw),
		zap.Float64("price", fill.Price))

	return fill, nil
}

// GetBalance returns the lamport balance of the given account. It fails
// with ErrBalanceUnavailable on transport errors; callers substitute
// zero and log rather than propagate.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	out, err := c.rpcClient.GetBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBalanceUnavailable, err)
	}
	return out.Value, nil
}

// GetTokenPrice quotes one whole token into SOL and returns the price
// in SOL per token. A zero-liquidity or failed quote surfaces as
// ErrQuoteUnavailable.
func (c *Client) GetTokenPrice(ctx context.Context, mint string) (float64, error) {
	quote, err := c.GetQuote(ctx, QuoteParams{
		InputMint:       mint,
		OutputMint:      WSOLMint,
		AmountRaw:       TokensToRaw(1),
		SlippagePercent: float64(priceProbeSlippageBps) / 100,
	})
	if err != nil {
		return 0, err
	}
	return LamportsToSol(quote.OutAmountRaw), nil
}

// executionPrice derives SOL-per-token from the filled amounts. The SOL
// side is identified by the input mint: buys spend SOL, sells receive it.
func executionPrice(inputMint string, inRaw, outRaw uint64) float64 {
	if inputMint == WSOLMint {
		tokens := RawToTokens(outRaw)
		if tokens == 0 {
			return 0
		}
		return LamportsToSol(inRaw) / tokens
	}
	tokens := RawToTokens(inRaw)
	if tokens == 0 {
		return 0
	}
	return LamportsToSol(outRaw) / tokens
}

func parseAmountOr(s string, fallback uint64) uint64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

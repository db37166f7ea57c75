package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Reader executes read-only chain queries. Adapters depend on this interface
// rather than the concrete client so tests can substitute fakes.
type Reader interface {
	EthCall(ctx context.Context, chainID uint64, to Address, calldata []byte) ([]byte, error)
	PendingNonce(ctx context.Context, chainID uint64, account Address) (uint64, error)
	NativeBalance(ctx context.Context, chainID uint64, account Address) (*big.Int, error)
}

// Client is a minimal JSON-RPC client for read-only queries, routed by chain
// ID. Each chain has an ordered endpoint list; the first URL is primary and
// the rest are fallbacks.
type Client struct {
	endpoints  map[uint64][]string
	httpClient *http.Client
	requestID  atomic.Int64
}

func NewClient(endpoints map[uint64][]string) *Client {
	return &Client{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EthCall executes a read-only contract call and returns the raw result bytes.
func (c *Client) EthCall(ctx context.Context, chainID uint64, to Address, calldata []byte) ([]byte, error) {
	result, err := c.call(ctx, chainID, "eth_call", []any{
		map[string]string{
			"to":   to.String(),
			"data": "0x" + hex.EncodeToString(calldata),
		},
		"latest",
	})
	if err != nil {
		return nil, err
	}
	return decodeHexResult(result)
}

// PendingNonce returns the account's transaction count at the pending tag,
// i.e. the next nonce including transactions still in the mempool.
func (c *Client) PendingNonce(ctx context.Context, chainID uint64, account Address) (uint64, error) {
	result, err := c.call(ctx, chainID, "eth_getTransactionCount", []any{account.String(), "pending"})
	if err != nil {
		return 0, err
	}
	n, err := decodeHexQuantity(result)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// NativeBalance returns the account's native-token balance in wei.
func (c *Client) NativeBalance(ctx context.Context, chainID uint64, account Address) (*big.Int, error) {
	result, err := c.call(ctx, chainID, "eth_getBalance", []any{account.String(), "latest"})
	if err != nil {
		return nil, err
	}
	return decodeHexQuantity(result)
}

func (c *Client) call(ctx context.Context, chainID uint64, method string, params []any) (json.RawMessage, error) {
	urls := c.endpoints[chainID]
	if len(urls) == 0 {
		return nil, fmt.Errorf("no rpc endpoint configured for chain %d", chainID)
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.requestID.Add(1),
	}

	var lastErr error
	for _, url := range urls {
		result, err := c.doRequest(ctx, url, req)
		if err != nil {
			lastErr = err
			continue
		}
		return result, nil
	}
	return nil, fmt.Errorf("all rpc endpoints failed for chain %d: %w", chainID, lastErr)
}

func (c *Client) doRequest(ctx context.Context, url string, req rpcRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

func decodeHexResult(raw json.RawMessage) ([]byte, error) {
	var hexResult string
	if err := json.Unmarshal(raw, &hexResult); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return hex.DecodeString(strings.TrimPrefix(hexResult, "0x"))
}

func decodeHexQuantity(raw json.RawMessage) (*big.Int, error) {
	var hexResult string
	if err := json.Unmarshal(raw, &hexResult); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	n, ok := new(big.Int).SetString(strings.TrimPrefix(hexResult, "0x"), 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex quantity %q", hexResult)
	}
	return n, nil
}

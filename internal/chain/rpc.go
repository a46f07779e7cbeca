package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gaponukz/cobraBot/internal/domain"
	"github.com/gaponukz/cobraBot/internal/errors"
)

// RPCSource talks to an Ethereum JSON-RPC endpoint. It is deliberately a thin
// I/O wrapper: filter creation plus "give me the new entries since last poll",
// with decoding driven entirely by the contract description.
type RPCSource struct {
	endpoint string
	contract *Contract
	client   *http.Client
	nextID   atomic.Int64
}

// NewRPCSource builds a source for the given endpoint and contract.
func NewRPCSource(endpoint string, contract *Contract, timeout time.Duration) *RPCSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RPCSource{
		endpoint: endpoint,
		contract: contract,
		client:   &http.Client{Timeout: timeout},
	}
}

// Subscribe installs a server-side log filter for kind, starting at the
// latest block.
func (s *RPCSource) Subscribe(ctx context.Context, kind domain.EventKind) (Filter, error) {
	topic, ok := s.contract.Topic(kind)
	if !ok {
		return nil, fmt.Errorf("contract declares no topic for event %q", kind)
	}

	params := map[string]any{
		"address":   s.contract.Address,
		"fromBlock": "latest",
		"topics":    []any{topic},
	}

	var filterID string
	if err := s.call(ctx, "eth_newFilter", []any{params}, &filterID); err != nil {
		return nil, fmt.Errorf("create filter for %s: %w", kind, err)
	}

	return &rpcFilter{source: s, kind: kind, filterID: filterID}, nil
}

// AddressByRefID calls the contract's usersId(uint256) view and returns the
// registered account address, or an empty string for the zero address.
func (s *RPCSource) AddressByRefID(ctx context.Context, refID string) (string, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(refID), 10)
	if !ok {
		return "", fmt.Errorf("referral id %q is not numeric", refID)
	}

	callData := s.contract.UsersIDSelector + fmt.Sprintf("%064x", n)
	params := map[string]any{
		"to":   s.contract.Address,
		"data": callData,
	}

	var result string
	if err := s.call(ctx, "eth_call", []any{params, "latest"}, &result); err != nil {
		return "", err
	}

	address, err := wordToAddress(strings.TrimPrefix(result, "0x"))
	if err != nil {
		return "", fmt.Errorf("decode usersId result: %w", err)
	}
	if isZeroAddress(address) {
		return "", nil
	}

	return address, nil
}

type rpcFilter struct {
	source   *RPCSource
	kind     domain.EventKind
	filterID string
}

func (f *rpcFilter) Kind() domain.EventKind { return f.kind }

// Poll drains the entries accumulated since the previous Poll.
func (f *rpcFilter) Poll(ctx context.Context) ([]domain.Event, error) {
	var logs []rawLog
	if err := f.source.call(ctx, "eth_getFilterChanges", []any{f.filterID}, &logs); err != nil {
		return nil, errors.NewSourceError(err)
	}

	events := make([]domain.Event, 0, len(logs))
	for _, entry := range logs {
		event, err := decodeEvent(f.kind, entry)
		if err != nil {
			return nil, errors.NewSourceError(fmt.Errorf("decode %s log: %w", f.kind, err))
		}
		events = append(events, event)
	}

	return events, nil
}

// rawLog is the subset of an eth log entry the decoder needs.
type rawLog struct {
	Topics []string `json:"topics"`
	Data   string   `json:"data"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (s *RPCSource) call(ctx context.Context, method string, params []any, result any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      s.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}

	return nil
}

var (
	_ Source          = (*RPCSource)(nil)
	_ AccountResolver = (*RPCSource)(nil)
)

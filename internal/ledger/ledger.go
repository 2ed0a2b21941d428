package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/base32"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jaimytreling/AlgoMart/config"

	"github.com/pkg/errors"
)

const tokenHeader = "X-Algo-API-Token"

// AccountInfo describes an on-chain account's balance state
type AccountInfo struct {
	Amount     uint64 `json:"amount"`
	MinBalance uint64 `json:"min-balance"`
}

// AppSchema is the global state schema of an application
type AppSchema struct {
	NumGlobalInts       uint32
	NumGlobalByteSlices uint32
}

// AppCreateParams are the inputs for an application-creation transaction
type AppCreateParams struct {
	Sender          string
	Key             ed25519.PrivateKey
	ApprovalProgram []byte
	ClearProgram    []byte
	Schema          AppSchema
	AppArgs         [][]byte
}

// SubmitResult is the outcome of submitting a transaction to the pending
// pool. Acceptance here does not mean on-chain finality.
type SubmitResult struct {
	TxID          string
	SignedPayload []byte
}

// PendingInfo reports a submitted transaction's confirmation state
type PendingInfo struct {
	ConfirmedRound   uint64 `json:"confirmed-round"`
	ApplicationIndex uint64 `json:"application-index"`
	PoolError        string `json:"pool-error"`
}

type suggestedParams struct {
	Fee         uint64 `json:"fee"`
	MinFee      uint64 `json:"min-fee"`
	LastRound   uint64 `json:"last-round"`
	GenesisID   string `json:"genesis-id"`
	GenesisHash string `json:"genesis-hash"`
}

// Client talks to an algod node over its REST API
type Client struct {
	server     string
	token      string
	httpClient *http.Client
}

// NewClient creates a new ledger client
func NewClient(cfg config.LedgerConfig) *Client {
	return &Client{
		server:     strings.TrimRight(cfg.Server, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build ledger request")
	}
	req.Header.Set(tokenHeader, c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "ledger request %s %s failed", method, path)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		data, _ := io.ReadAll(res.Body)
		return errors.Errorf("ledger request %s %s returned %d: %s", method, path, res.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return errors.Wrap(err, "failed to decode ledger response")
		}
	}
	return nil
}

// CompileProgram compiles TEAL source to program bytes
func (c *Client) CompileProgram(ctx context.Context, source string) ([]byte, error) {
	var result struct {
		Hash   string `json:"hash"`
		Result string `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/teal/compile", "text/plain", []byte(source), &result); err != nil {
		return nil, err
	}

	program, err := base64.StdEncoding.DecodeString(result.Result)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode compiled program")
	}
	return program, nil
}

// GetAccountInfo returns the balance and minimum balance of an account
func (c *Client) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	var info AccountInfo
	if err := c.do(ctx, http.MethodGet, "/v2/accounts/"+address, "", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// AppMinBalance estimates the minimum balance increase the creator account
// needs for an application with the given global state schema.
func (c *Client) AppMinBalance(schema AppSchema) uint64 {
	const (
		appFlatCost         = 100_000
		schemaUintCost      = 28_500
		schemaByteSliceCost = 50_000
	)
	return appFlatCost +
		uint64(schema.NumGlobalInts)*schemaUintCost +
		uint64(schema.NumGlobalByteSlices)*schemaByteSliceCost
}

// SubmitAppCreate builds, signs and submits an application-creation
// transaction. Returns once the node accepts it into the pending pool.
func (c *Client) SubmitAppCreate(ctx context.Context, params AppCreateParams) (*SubmitResult, error) {
	sp, err := c.suggestedParams(ctx)
	if err != nil {
		return nil, err
	}

	fee := sp.Fee
	if fee < sp.MinFee {
		fee = sp.MinFee
	}

	appArgs := make([]string, 0, len(params.AppArgs))
	for _, arg := range params.AppArgs {
		appArgs = append(appArgs, base64.StdEncoding.EncodeToString(arg))
	}

	txn := map[string]interface{}{
		"type":   "appl",
		"snd":    params.Sender,
		"fee":    fee,
		"fv":     sp.LastRound,
		"lv":     sp.LastRound + 1000,
		"gen":    sp.GenesisID,
		"gh":     sp.GenesisHash,
		"apap":   base64.StdEncoding.EncodeToString(params.ApprovalProgram),
		"apsu":   base64.StdEncoding.EncodeToString(params.ClearProgram),
		"apaa":   appArgs,
		"apgs":   map[string]uint32{"nui": params.Schema.NumGlobalInts, "nbs": params.Schema.NumGlobalByteSlices},
	}

	encoded, err := json.Marshal(txn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode application transaction")
	}

	signed, txID, err := signTransaction(params.Key, encoded)
	if err != nil {
		return nil, err
	}

	if _, err := c.SubmitTransaction(ctx, signed); err != nil {
		return nil, err
	}

	return &SubmitResult{TxID: txID, SignedPayload: signed}, nil
}

// SubmitTransaction submits a signed transaction to the pending pool
func (c *Client) SubmitTransaction(ctx context.Context, signed []byte) (string, error) {
	var result struct {
		TxID string `json:"txId"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/transactions", "application/x-binary", signed, &result); err != nil {
		return "", err
	}
	return result.TxID, nil
}

// PendingTransaction reports the confirmation state of a submitted
// transaction. A zero confirmed round with an empty pool error means the
// transaction is still pending.
func (c *Client) PendingTransaction(ctx context.Context, txID string) (*PendingInfo, error) {
	var info PendingInfo
	path := fmt.Sprintf("/v2/transactions/pending/%s?format=json", txID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) suggestedParams(ctx context.Context) (*suggestedParams, error) {
	var sp suggestedParams
	if err := c.do(ctx, http.MethodGet, "/v2/transactions/params", "", nil, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

// EncodeUint64 encodes a value as the 8-byte big-endian application argument
// format the TEAL programs expect.
func EncodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// signTransaction signs the canonical transaction encoding and derives the
// transaction ID from its digest.
func signTransaction(key ed25519.PrivateKey, encoded []byte) ([]byte, string, error) {
	toSign := append([]byte("TX"), encoded...)
	sig := ed25519.Sign(key, toSign)

	digest := sha512.Sum512_256(toSign)
	txID := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(digest[:])

	signed, err := json.Marshal(map[string]interface{}{
		"sig": base64.StdEncoding.EncodeToString(sig),
		"txn": json.RawMessage(encoded),
	})
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to encode signed transaction")
	}
	return signed, txID, nil
}

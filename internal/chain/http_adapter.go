package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// HTTPAdapter talks to an external chain adapter service that owns the
// per-chain RPC clients and signing integration. Address format checks run
// locally; everything that needs chain state goes over the wire.
type HTTPAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPAdapter creates an adapter client for the given service URL
func NewHTTPAdapter(baseURL string, timeout time.Duration) *HTTPAdapter {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 3 * time.Second
	retryClient.HTTPClient.Timeout = timeout
	retryClient.Logger = nil

	return &HTTPAdapter{
		baseURL:    baseURL,
		httpClient: retryClient.StandardClient(),
	}
}

// ValidateAddress checks the address against the chain family's format
// rules. Format validation needs no chain state, so it stays local.
func (a *HTTPAdapter) ValidateAddress(chain types.ChainID, address string) bool {
	return ValidAddressFormat(chain, address)
}

// SubmitSignedPayload forwards the payload to the adapter service for
// signing and broadcast
func (a *HTTPAdapter) SubmitSignedPayload(ctx context.Context, chain types.ChainID, payload []byte, signing SigningContext) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"chain":           chain,
		"payload":         payload,
		"signing_context": signing,
	})
	if err != nil {
		return "", fmt.Errorf("encoding submission: %w", err)
	}

	var resp struct {
		TxHash string `json:"tx_hash"`
	}
	if err := a.post(ctx, "/v1/submit", body, &resp); err != nil {
		return "", err
	}
	if resp.TxHash == "" {
		return "", fmt.Errorf("adapter returned empty tx hash for %s", chain)
	}

	logrus.WithFields(logrus.Fields{
		"chain":   chain,
		"tx_hash": resp.TxHash,
	}).Debug("Payload broadcast via adapter service")
	return resp.TxHash, nil
}

// GetTransactionConfirmations queries the adapter service for a
// transaction's confirmation depth
func (a *HTTPAdapter) GetTransactionConfirmations(ctx context.Context, chain types.ChainID, txHash string) (ConfirmationStatus, error) {
	url := fmt.Sprintf("%s/v1/confirmations?chain=%s&tx=%s", a.baseURL, chain, txHash)
	var resp struct {
		Confirmed   bool   `json:"confirmed"`
		Depth       int    `json:"depth"`
		BlockNumber uint64 `json:"block_number"`
	}
	if err := a.get(ctx, url, &resp); err != nil {
		return ConfirmationStatus{}, err
	}
	return ConfirmationStatus{
		Confirmed:   resp.Confirmed,
		Depth:       resp.Depth,
		BlockNumber: resp.BlockNumber,
	}, nil
}

// LookupDestinationTransaction asks the adapter service for the bridge
// delivery transaction matching a source transaction
func (a *HTTPAdapter) LookupDestinationTransaction(ctx context.Context, chain types.ChainID, sourceTxHash string) (string, bool, error) {
	url := fmt.Sprintf("%s/v1/destination-tx?chain=%s&source_tx=%s", a.baseURL, chain, sourceTxHash)
	var resp struct {
		Found  bool   `json:"found"`
		TxHash string `json:"tx_hash"`
	}
	if err := a.get(ctx, url, &resp); err != nil {
		return "", false, err
	}
	return resp.TxHash, resp.Found, nil
}

func (a *HTTPAdapter) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return a.do(req, out)
}

func (a *HTTPAdapter) post(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, out)
}

func (a *HTTPAdapter) do(req *http.Request, out interface{}) error {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("adapter service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("adapter service error: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding adapter response: %w", err)
	}
	return nil
}

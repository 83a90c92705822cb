package chain

import (
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

// fallbackGasPrices are the static per-chain defaults used when the oracle
// service is unreachable, in native gas units (gwei for EVM chains).
var fallbackGasPrices = map[types.ChainID]float64{
	types.ChainEthereum:  30,
	types.ChainPolygon:   80,
	types.ChainArbitrum:  0.1,
	types.ChainOptimism:  0.05,
	types.ChainAvalanche: 25,
	types.ChainBSC:       3,
	types.ChainBase:      0.05,
	types.ChainSolana:    0.000005,
	types.ChainAptos:     0.0001,
}

// FallbackGasPrice returns the static default gas price for a chain
func FallbackGasPrice(chain types.ChainID) float64 {
	if p, ok := fallbackGasPrices[chain]; ok {
		return p
	}
	return 30
}

// HTTPGasOracle queries an external gas price service over HTTP. Transient
// failures are retried by the underlying client; persistent failures fall
// back to the static per-chain defaults, so OptimalGasPrice never errors.
type HTTPGasOracle struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewHTTPGasOracle creates a gas oracle client for the given service URL
func NewHTTPGasOracle(baseURL string, timeout time.Duration) *HTTPGasOracle {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 250 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	return &HTTPGasOracle{
		baseURL:    baseURL,
		httpClient: retryClient.StandardClient(),
		timeout:    timeout,
	}
}

// OptimalGasPrice returns the service's recommended gas price for the
// chain, or the static fallback when the service is unavailable.
func (o *HTTPGasOracle) OptimalGasPrice(ctx context.Context, chain types.ChainID) (float64, error) {
	if o.baseURL == "" {
		return FallbackGasPrice(chain), nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1/gas-price?chain=%s", o.baseURL, chain)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return FallbackGasPrice(chain), nil
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"chain": chain,
			"error": err,
		}).Warn("Gas oracle unreachable, using fallback price")
		return FallbackGasPrice(chain), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logrus.WithFields(logrus.Fields{
			"chain":  chain,
			"status": resp.StatusCode,
			"body":   string(body),
		}).Warn("Gas oracle error response, using fallback price")
		return FallbackGasPrice(chain), nil
	}

	var payload struct {
		Chain    string  `json:"chain"`
		GasPrice float64 `json:"gas_price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return FallbackGasPrice(chain), nil
	}
	if payload.GasPrice <= 0 {
		return FallbackGasPrice(chain), nil
	}

	logrus.WithFields(logrus.Fields{
		"chain":     chain,
		"gas_price": payload.GasPrice,
	}).Debug("Fetched gas price")
	return payload.GasPrice, nil
}

// EstimatedGasLimit returns the service's gas limit estimate for a
// protocol's submission transaction. Errors are returned so the caller can
// apply its own per-protocol fallback; an unconfigured oracle is a clean
// zero answer, not an error.
func (o *HTTPGasOracle) EstimatedGasLimit(ctx context.Context, protocolID string) (uint64, error) {
	if o.baseURL == "" {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1/gas-limit?protocol=%s", o.baseURL, protocolID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("querying gas limit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("gas limit query: status %d", resp.StatusCode)
	}

	var payload struct {
		Protocol string `json:"protocol"`
		GasLimit uint64 `json:"gas_limit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding gas limit response: %w", err)
	}
	if payload.GasLimit == 0 {
		return 0, fmt.Errorf("gas limit query returned zero for %s", protocolID)
	}
	return payload.GasLimit, nil
}

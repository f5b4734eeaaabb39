// Package listener discovers live option contracts and streams their
// quotes into the option store.
package listener

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/logger"
)

// contractsBaseURL is the reference-data endpoint contracts are
// discovered from before subscribing to their real-time quotes.
const contractsBaseURL = "https://api.massive.com"

type contractRef struct {
	CFI               string  `json:"cfi"`
	ContractType      string  `json:"contract_type"`
	ExpiryDate        string  `json:"expiration_date"`
	StrikePrice       float64 `json:"strike_price"`
	Ticker            string  `json:"ticker"`
	UnderlyingTicker  string  `json:"underlying_ticker"`
}

type contractsResp struct {
	Results []contractRef `json:"results"`
	NextURL string        `json:"next_url"`
}

// ContractDiscoverer finds the live OCC contract symbols for a given
// underlying and expiration date. The pagination and rate-limit retry
// pattern mirrors the reference HTTP provider this listener is
// adapted from.
type ContractDiscoverer struct {
	APIKey  string
	Client  *http.Client
	BaseURL string
}

// NewContractDiscoverer constructs a discoverer with a connection-pooled
// client tuned the same way as the rest of this module's HTTP clients.
func NewContractDiscoverer(apiKey string) *ContractDiscoverer {
	return &ContractDiscoverer{
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL: contractsBaseURL,
	}
}

// DiscoverContracts returns every live OCC contract symbol for
// underlying expiring on expiryDate.
func (d *ContractDiscoverer) DiscoverContracts(underlying string, expiryDate time.Time) ([]string, error) {
	u, err := url.Parse(d.BaseURL + "/v3/reference/options/contracts")
	if err != nil {
		return nil, err
	}

	query := u.Query()
	query.Set("underlying_ticker", underlying)
	query.Set("expiration_date", expiryDate.Format("2006-01-02"))
	query.Set("expired", "false")
	query.Set("limit", "1000")
	query.Set("apiKey", d.APIKey)
	u.RawQuery = query.Encode()

	var symbols []string
	reqURL := u.String()

	for reqURL != "" {
		logger.Debugf("contract discovery request URL: %s", reqURL)

		req, err := http.NewRequest(http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+d.APIKey)
		req.Header.Set("Accept", "application/json")

		resp, err := d.doWithRateLimitRetry(req)
		if err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("contract discovery status %d: %s", resp.StatusCode, string(body))
		}

		var parsed contractsResp
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("decode contracts: %w", err)
		}

		for _, c := range parsed.Results {
			if !domain.IsSymbol(c.UnderlyingTicker) {
				continue
			}
			symbols = append(symbols, c.Ticker)
		}

		reqURL = parsed.NextURL
	}

	logger.Infof("discovered %d contracts for %s expiring %s", len(symbols), underlying, expiryDate.Format("2006-01-02"))
	return symbols, nil
}

// doWithRateLimitRetry retries on HTTP 429 by sleeping until the next
// minute boundary. Any other response is returned to the caller as is.
func (d *ContractDiscoverer) doWithRateLimitRetry(req *http.Request) (*http.Response, error) {
	for {
		resp, err := d.Client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 400 {
			return resp, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			sleep := time.Until(time.Now().Truncate(time.Minute).Add(time.Minute))
			logger.Warnf("contract discovery rate limited, sleeping for %s", sleep)
			time.Sleep(sleep)
			continue
		}
		return resp, nil
	}
}

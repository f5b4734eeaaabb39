// Package events fetches and caches Polymarket stock-price prediction
// events from the Gamma API, and exposes a read-only cross-check
// against the core probability models.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/logger"
)

const (
	gammaAPIURL = "https://gamma-api.polymarket.com/events"
	batchSize   = 500
)

// Pattern: "Will Amazon (AMZN) finish week of December 29 above___?"
var (
	eventQuestionPattern  = regexp.MustCompile(`^Will .+ \(([A-Z]+)\) finish week of .+ above___\?$`)
	marketQuestionPattern = regexp.MustCompile(`^Will .+ \([A-Z]+\) finish week of .+ above \$?([\d.]+)\?$`)
)

type gammaMarket struct {
	Question            string `json:"question"`
	QuestionID           string `json:"questionID"`
	ClobTokenIDs         string `json:"clobTokenIds"`
	OutcomePrices        string `json:"outcomePrices"`
	OrderPriceMinTickSize string `json:"orderPriceMinTickSize"`
	NegRisk              bool   `json:"negRisk"`
}

type gammaEvent struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	EndDate string        `json:"endDate"`
	Markets []gammaMarket `json:"markets"`
}

// fetcher wraps the Gamma API HTTP client, pagination loop, and
// circuit breaker. The pagination idiom follows the reference REST
// provider this module's listener was adapted from. Failed requests are
// not retried; three consecutive failures open the circuit breaker.
type fetcher struct {
	client    *resty.Client
	breaker   *gobreaker.CircuitBreaker
	validator *validator.Validate
	baseURL   string
}

func newFetcher() *fetcher {
	return newFetcherWithBaseURL(gammaAPIURL)
}

// newFetcherWithBaseURL builds a fetcher against an arbitrary base URL,
// letting tests point it at an httptest server instead of the live
// Gamma API.
func newFetcherWithBaseURL(baseURL string) *fetcher {
	client := resty.New().SetTimeout(30 * time.Second)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gamma-api",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Infof("gamma api breaker %s: %s -> %s", name, from, to)
		},
	})

	return &fetcher{client: client, breaker: breaker, validator: validator.New(), baseURL: baseURL}
}

// FetchStockEvents fetches every Polymarket event matching the stock
// price prediction question pattern and returns their decoded
// metadata, paginating until a page returns fewer than batchSize
// items.
func (f *fetcher) FetchStockEvents(ctx context.Context) ([]domain.EventMetadata, error) {
	endOfYear := fmt.Sprintf("%d-12-31T23:59:59Z", time.Now().UTC().Year())

	var matching []domain.EventMetadata
	offset := 0

	for {
		var events []gammaEvent

		_, err := f.breaker.Execute(func() (interface{}, error) {
			resp, err := f.client.R().
				SetContext(ctx).
				SetQueryParams(map[string]string{
					"closed":       "false",
					"end_date_max": endOfYear,
					"limit":        fmt.Sprintf("%d", batchSize),
					"offset":       fmt.Sprintf("%d", offset),
				}).
				SetResult(&events).
				Get(f.baseURL)
			if err != nil {
				return nil, fmt.Errorf("gamma api request: %w", err)
			}
			if resp.IsError() {
				return nil, fmt.Errorf("gamma api status %d", resp.StatusCode())
			}
			return nil, nil
		})
		if err != nil {
			return nil, err
		}

		if len(events) == 0 {
			break
		}

		for _, ev := range events {
			meta, ok := f.parseEvent(ev)
			if !ok {
				continue
			}
			matching = append(matching, meta)
		}

		offset += len(events)
		if len(events) < batchSize {
			break
		}
	}

	return matching, nil
}

func (f *fetcher) parseEvent(ev gammaEvent) (domain.EventMetadata, bool) {
	if !eventQuestionPattern.MatchString(ev.Title) {
		return domain.EventMetadata{}, false
	}

	symbol, ok := parseSymbol(ev.Title)
	if !ok {
		logger.Debugf("could not parse symbol from event title: %s", ev.Title)
		return domain.EventMetadata{}, false
	}

	var markets []domain.MarketMetadata
	for _, m := range ev.Markets {
		market, ok := f.parseMarket(m)
		if ok {
			markets = append(markets, market)
		}
	}

	meta := domain.EventMetadata{
		Symbol:     symbol,
		Question:   ev.Title,
		QuestionID: ev.ID,
		EndDate:    ev.EndDate,
		Markets:    markets,
	}

	if err := f.validator.Struct(gammaMetaValidation{Symbol: string(meta.Symbol), Question: meta.Question}); err != nil {
		logger.Debugf("event metadata failed validation: %v", err)
		return domain.EventMetadata{}, false
	}

	return meta, true
}

// gammaMetaValidation carries only the fields worth struct-tag
// validation; EventMetadata itself stays a plain domain value.
type gammaMetaValidation struct {
	Symbol   string `validate:"required,alpha"`
	Question string `validate:"required"`
}

func (f *fetcher) parseMarket(m gammaMarket) (domain.MarketMetadata, bool) {
	if m.Question == "" {
		return domain.MarketMetadata{}, false
	}

	strike, ok := parseStrikePrice(m.Question)
	if !ok {
		return domain.MarketMetadata{}, false
	}

	var tokens []string
	_ = json.Unmarshal([]byte(m.ClobTokenIDs), &tokens)

	var rawPrices []json.Number
	_ = json.Unmarshal([]byte(m.OutcomePrices), &rawPrices)
	prices := make([]float64, len(rawPrices))
	for i, p := range rawPrices {
		prices[i], _ = p.Float64()
	}

	market := domain.MarketMetadata{
		Question:    m.Question,
		QuestionID:  m.QuestionID,
		StrikePrice: strike,
		TickSize:    domain.TickSize(m.OrderPriceMinTickSize),
		NegRisk:     m.NegRisk,
	}
	if len(tokens) > 0 {
		market.YesTokenID = tokens[0]
	}
	if len(tokens) > 1 {
		market.NoTokenID = tokens[1]
	}
	if len(prices) > 0 {
		market.YesPrice = prices[0]
	}
	if len(prices) > 1 {
		market.NoPrice = prices[1]
	}

	return market, true
}

func parseSymbol(eventQuestion string) (domain.Symbol, bool) {
	m := eventQuestionPattern.FindStringSubmatch(eventQuestion)
	if m == nil {
		return "", false
	}
	if !domain.IsSymbol(m[1]) {
		logger.Debugf("unknown symbol parsed: %s", m[1])
		return "", false
	}
	return domain.Symbol(m[1]), true
}

func parseStrikePrice(marketQuestion string) (float64, bool) {
	m := marketQuestionPattern.FindStringSubmatch(marketQuestion)
	if m == nil {
		return 0, false
	}
	var price float64
	if _, err := fmt.Sscanf(m[1], "%f", &price); err != nil {
		return 0, false
	}
	return price, true
}

package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/logger"
	"github.com/contactkeval/optionprob/internal/store"
)

const wsURL = "wss://socket.massive.com/options"

// quoteMessage is one real-time option quote as delivered over the
// websocket feed.
type quoteMessage struct {
	Event     string  `json:"ev"`
	Symbol    string  `json:"sym"`
	BidPrice  float64 `json:"bp"`
	AskPrice  float64 `json:"ap"`
	Timestamp int64   `json:"t"` // epoch millis
}

type authMessage struct {
	Action string `json:"action"`
	Params string `json:"params"`
}

type subscribeMessage struct {
	Action string `json:"action"`
	Params string `json:"params"`
}

// Listener subscribes to real-time option quotes for a set of OCC
// contract symbols and feeds them into an option store. It owns no
// state of its own beyond the store write path; quote merge logic
// lives entirely in the store.
type Listener struct {
	apiKey     string
	store      store.Writer
	discoverer *ContractDiscoverer
	dialer     *websocket.Dialer
}

// New constructs a listener that writes into store.
func New(apiKey string, s store.Writer) *Listener {
	return &Listener{
		apiKey:     apiKey,
		store:      s,
		discoverer: NewContractDiscoverer(apiKey),
		dialer:     websocket.DefaultDialer,
	}
}

// Run discovers every live contract for underlying+expiryDate,
// subscribes to their option quote feed, and applies every received
// quote to the store until ctx is cancelled. It returns cleanly on
// cancellation; any other error is returned to the caller.
func (l *Listener) Run(ctx context.Context, underlying string, expiryDate time.Time) error {
	symbols, err := l.discoverer.DiscoverContracts(underlying, expiryDate)
	if err != nil {
		return fmt.Errorf("discover contracts: %w", err)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no live contracts found for %s expiring %s", underlying, expiryDate.Format("2006-01-02"))
	}

	conn, _, err := l.dialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer conn.Close()
	conn.SetReadLimit(1 << 20)

	if err := conn.WriteJSON(authMessage{Action: "auth", Params: l.apiKey}); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	topics := make([]string, len(symbols))
	for i, sym := range symbols {
		topics[i] = "Q." + sym
	}
	if err := conn.WriteJSON(subscribeMessage{Action: "subscribe", Params: strings.Join(topics, ",")}); err != nil {
		return fmt.Errorf("subscribe quotes: %w", err)
	}
	logger.Infof("subscribed to %d contract quote feeds for %s", len(topics), underlying)

	done := make(chan error, 1)
	messages := make(chan []byte, 1024)

	go func() {
		defer close(messages)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			select {
			case messages <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("listener shutting down for %s", underlying)
			return nil
		case err := <-done:
			return fmt.Errorf("quote stream closed: %w", err)
		case data, ok := <-messages:
			if !ok {
				return fmt.Errorf("quote stream closed unexpectedly")
			}
			l.handleMessage(data)
		}
	}
}

func (l *Listener) handleMessage(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("discarding quote message after panic: %v", r)
		}
	}()

	var batch []quoteMessage
	if err := json.Unmarshal(data, &batch); err != nil {
		var single quoteMessage
		if err := json.Unmarshal(data, &single); err != nil {
			logger.Debugf("discarding unparseable quote message")
			return
		}
		batch = []quoteMessage{single}
	}

	for _, q := range batch {
		if q.Event != "" && q.Event != "Q" {
			continue
		}
		event := domain.QuoteEvent{
			OCCSymbol: q.Symbol,
			Bid:       q.BidPrice,
			Ask:       q.AskPrice,
			Timestamp: time.UnixMilli(q.Timestamp).UTC(),
		}
		if _, ok := l.store.ApplyQuote(event); !ok {
			logger.Debugf("rejected quote for %s", event.OCCSymbol)
		}
	}
}

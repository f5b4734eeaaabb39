// Package domain holds the shared value types for the option-implied
// probability engine: recognized symbols, tick sizes, quote/state
// records, surface snapshots, and model output shapes.
package domain

import (
	"fmt"
	"time"
)

// Symbol is a recognized underlying ticker. Options and Polymarket
// events outside this set are rejected at the parsing boundary.
type Symbol string

const (
	AAPL Symbol = "AAPL"
	MSFT Symbol = "MSFT"
	GOOGL Symbol = "GOOGL"
	AMZN Symbol = "AMZN"
	TSLA Symbol = "TSLA"
	META Symbol = "META"
	NVDA Symbol = "NVDA"
	NFLX Symbol = "NFLX"
	PLTR Symbol = "PLTR"
	OPEN Symbol = "OPEN"
)

// Symbols is the recognized ticker set, mirrored from the Python
// SYMBOLS constant it was distilled from.
var Symbols = map[Symbol]bool{
	AAPL: true, MSFT: true, GOOGL: true, AMZN: true, TSLA: true,
	META: true, NVDA: true, NFLX: true, PLTR: true, OPEN: true,
}

// IsSymbol reports whether value names a recognized ticker.
func IsSymbol(value string) bool {
	return Symbols[Symbol(value)]
}

// TickSize is a Polymarket order price tick size.
type TickSize string

const (
	Tick01   TickSize = "0.1"
	Tick001  TickSize = "0.01"
	Tick0001 TickSize = "0.001"
	Tick00001 TickSize = "0.0001"
)

// ExpiryTimeUTC is the market-close time (4:00 PM ET) that every
// options expiry datetime is pinned to.
var ExpiryTimeUTC = struct {
	Hour, Min, Sec int
}{21, 0, 0}

// MakeExpiryDatetime builds an expiry datetime from a "YYYY-MM-DD"
// date string at market close (21:00 UTC).
func MakeExpiryDatetime(dateStr string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expiry date %q: %w", dateStr, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), ExpiryTimeUTC.Hour, ExpiryTimeUTC.Min, ExpiryTimeUTC.Sec, 0, time.UTC), nil
}

// Package occ parses and formats OCC-style option identifiers, e.g.
// "O:NVDA260117C00140000": symbol NVDA, expiry 2026-01-17, call,
// strike 140.00.
package occ

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/contactkeval/optionprob/internal/domain"
)

var pattern = regexp.MustCompile(`^O:(?P<symbol>[A-Z]+)(?P<yy>\d{2})(?P<mm>\d{2})(?P<dd>\d{2})(?P<type>[CP])(?P<strike>\d{8})$`)

// Parsed is the decoded form of an OCC identifier.
type Parsed struct {
	Symbol         domain.Symbol
	ExpirationDate time.Time
	OptionType     domain.OptionType
	Strike         float64
}

// Parse decodes an OCC symbol. ok is false if the format doesn't
// match, the ticker isn't a recognized symbol, or the embedded date
// isn't valid.
func Parse(occSymbol string) (Parsed, bool) {
	m := pattern.FindStringSubmatch(occSymbol)
	if m == nil {
		return Parsed{}, false
	}

	groups := map[string]string{}
	for i, name := range pattern.SubexpNames() {
		if i != 0 && name != "" {
			groups[name] = m[i]
		}
	}

	if !domain.IsSymbol(groups["symbol"]) {
		return Parsed{}, false
	}

	expiry, err := domain.MakeExpiryDatetime(fmt.Sprintf("20%s-%s-%s", groups["yy"], groups["mm"], groups["dd"]))
	if err != nil {
		return Parsed{}, false
	}

	optType := domain.Put
	if groups["type"] == "C" {
		optType = domain.Call
	}

	strikeDigits, err := strconv.Atoi(groups["strike"])
	if err != nil {
		return Parsed{}, false
	}

	return Parsed{
		Symbol:         domain.Symbol(groups["symbol"]),
		ExpirationDate: expiry,
		OptionType:     optType,
		Strike:         float64(strikeDigits) / 1000.0,
	}, true
}

// Format encodes a symbol/expiry/type/strike back into an OCC
// identifier, the inverse of Parse for well-formed inputs.
func Format(symbol domain.Symbol, expiry time.Time, optType domain.OptionType, strike float64) string {
	typeChar := "P"
	if optType == domain.Call {
		typeChar = "C"
	}
	return fmt.Sprintf("O:%s%s%s%08d", symbol, expiry.Format("060102"), typeChar, int64(strike*1000))
}

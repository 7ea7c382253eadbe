// Package occ encodes and decodes option contract symbols in the OCC
// convention used by the brokerage API: root, YYMMDD expiration, a C/P
// flag, and the strike in thousandths zero-padded to eight digits.
//
// The compact broker form is used, so the root is not space-padded. All
// fields to the right of the root have fixed widths, which makes decoding
// unambiguous: AAPL250620C00150000 is AAPL, 2025-06-20, call, 150.00.
package occ

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"optrader/internal/domain"
)

const (
	maxRootLen  = 6
	dateLen     = 6
	strikeLen   = 8
	minSymLen   = 1 + dateLen + 1 + strikeLen
	maxStrikeTh = 99999999 // largest strike*1000 that fits eight digits
)

// Contract is a decoded option symbol.
type Contract struct {
	Underlying string
	Expiration time.Time
	Strike     float64
	Type       domain.OptionType
}

// Encode builds the OCC symbol for the given contract terms.
// It fails with domain.ErrFieldOverflow when the underlying exceeds six
// characters or the strike does not fit the eight-digit field.
func Encode(underlying string, expiration time.Time, strike float64, typ domain.OptionType) (string, error) {
	if err := checkRoot(underlying); err != nil {
		return "", err
	}

	th := int64(math.Round(strike * 1000))
	if th < 0 || th > maxStrikeTh {
		return "", fmt.Errorf("strike %v: %w", strike, domain.ErrFieldOverflow)
	}

	var flag byte
	switch typ {
	case domain.OptionCall:
		flag = 'C'
	case domain.OptionPut:
		flag = 'P'
	default:
		return "", fmt.Errorf("option type %q: %w", typ, domain.ErrMalformedSymbol)
	}

	return fmt.Sprintf("%s%s%c%08d", underlying, expiration.Format("060102"), flag, th), nil
}

// Decode parses an OCC symbol back into its contract terms. It fails with
// domain.ErrMalformedSymbol when the string does not match the fixed-width
// layout or the type flag is neither C nor P.
func Decode(symbol string) (Contract, error) {
	if len(symbol) < minSymLen {
		return Contract{}, fmt.Errorf("%q too short: %w", symbol, domain.ErrMalformedSymbol)
	}

	root := symbol[:len(symbol)-dateLen-1-strikeLen]
	dateStr := symbol[len(root) : len(root)+dateLen]
	flag := symbol[len(root)+dateLen]
	strikeStr := symbol[len(symbol)-strikeLen:]

	if err := checkRoot(root); err != nil {
		return Contract{}, err
	}

	exp, err := time.Parse("060102", dateStr)
	if err != nil {
		return Contract{}, fmt.Errorf("%q: bad expiration %q: %w", symbol, dateStr, domain.ErrMalformedSymbol)
	}

	var typ domain.OptionType
	switch flag {
	case 'C':
		typ = domain.OptionCall
	case 'P':
		typ = domain.OptionPut
	default:
		return Contract{}, fmt.Errorf("%q: type flag %q: %w", symbol, string(flag), domain.ErrMalformedSymbol)
	}

	// ParseInt alone would accept a sign prefix; the field must be all digits.
	for i := 0; i < len(strikeStr); i++ {
		if strikeStr[i] < '0' || strikeStr[i] > '9' {
			return Contract{}, fmt.Errorf("%q: bad strike %q: %w", symbol, strikeStr, domain.ErrMalformedSymbol)
		}
	}
	th, err := strconv.ParseInt(strikeStr, 10, 64)
	if err != nil {
		return Contract{}, fmt.Errorf("%q: bad strike %q: %w", symbol, strikeStr, domain.ErrMalformedSymbol)
	}

	return Contract{
		Underlying: root,
		Expiration: exp,
		Strike:     float64(th) / 1000,
		Type:       typ,
	}, nil
}

// IsOption reports whether symbol parses as an OCC option symbol. Plain
// equity tickers are too short to match the fixed-width layout.
func IsOption(symbol string) bool {
	_, err := Decode(symbol)
	return err == nil
}

// checkRoot validates the underlying root: one to six characters, leading
// letter, upper-case letters and digits only.
func checkRoot(root string) error {
	if root == "" {
		return fmt.Errorf("empty underlying: %w", domain.ErrMalformedSymbol)
	}
	if len(root) > maxRootLen {
		return fmt.Errorf("underlying %q longer than %d chars: %w", root, maxRootLen, domain.ErrFieldOverflow)
	}
	for i := 0; i < len(root); i++ {
		c := root[i]
		if c >= 'A' && c <= 'Z' {
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return fmt.Errorf("underlying %q: %w", root, domain.ErrMalformedSymbol)
	}
	return nil
}

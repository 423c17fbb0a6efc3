package ledger

import (
	"errors"
	"strings"
)

type Currency string

const (
	GC Currency = "gc"
	SC Currency = "sc"
)

var ErrUnknownCurrency = errors.New("unknown_currency")

func ParseCurrency(v string) (Currency, error) {
	switch Currency(strings.ToLower(strings.TrimSpace(v))) {
	case GC:
		return GC, nil
	case SC:
		return SC, nil
	default:
		return "", ErrUnknownCurrency
	}
}

// Amount is a pair of integer balances, one per currency.
type Amount struct {
	GC int64 `json:"gc"`
	SC int64 `json:"sc"`
}

func Of(c Currency, n int64) Amount {
	if c == SC {
		return Amount{SC: n}
	}
	return Amount{GC: n}
}

func (a Amount) Get(c Currency) int64 {
	if c == SC {
		return a.SC
	}
	return a.GC
}

func (a Amount) Add(b Amount) Amount {
	return Amount{GC: a.GC + b.GC, SC: a.SC + b.SC}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{GC: a.GC - b.GC, SC: a.SC - b.SC}
}

func (a Amount) Total() int64 {
	return a.GC + a.SC
}

func (a Amount) IsZero() bool {
	return a.GC == 0 && a.SC == 0
}

func (a Amount) Negative() bool {
	return a.GC < 0 || a.SC < 0
}

// Covers reports whether a is at least b in both currencies.
func (a Amount) Covers(b Amount) bool {
	return a.GC >= b.GC && a.SC >= b.SC
}

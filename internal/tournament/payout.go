package tournament

import (
	"strings"

	"sweeps-casino/internal/ledger"

	"github.com/shopspring/decimal"
)

// PayoutSplit selects the currency mix used to split a position's prize.
type PayoutSplit string

const (
	SplitByBuyIn PayoutSplit = "buyin"
	SplitByPool  PayoutSplit = "pool"
)

func ParsePayoutSplit(v string) (PayoutSplit, error) {
	switch PayoutSplit(strings.ToLower(strings.TrimSpace(v))) {
	case "", SplitByBuyIn:
		return SplitByBuyIn, nil
	case SplitByPool:
		return SplitByPool, nil
	}
	return "", ErrInvalidPayoutSplit
}

// PayoutScale selects how the paid slice of the table becomes percentages.
// Rescaled seats share the whole pool; table seats keep the fixed
// percentages and whatever the slice does not cover is not paid out.
type PayoutScale string

const (
	ScaleRescale PayoutScale = "rescale"
	ScaleTable   PayoutScale = "table"
)

func ParsePayoutScale(v string) (PayoutScale, error) {
	switch PayoutScale(strings.ToLower(strings.TrimSpace(v))) {
	case "", ScaleRescale:
		return ScaleRescale, nil
	case ScaleTable:
		return ScaleTable, nil
	}
	return "", ErrInvalidPayoutScale
}

// payoutDepthPercent of the seats are paid.
const payoutDepthPercent = 15

var payoutTable = []string{
	"25", "15", "10", "8", "6", "5", "4", "3", "2.5", "2",
	"1.5", "1.5", "1.5", "1.5", "1", "1", "1", "1", "1", "1",
}

var hundred = decimal.NewFromInt(100)

// PayoutDepth is the number of paid positions for a field of maxPlayers.
func PayoutDepth(maxPlayers int) int {
	depth := maxPlayers * payoutDepthPercent / 100
	if depth < 1 {
		depth = 1
	}
	if depth > len(payoutTable) {
		depth = len(payoutTable)
	}
	return depth
}

// PayoutStructure returns the paid positions with their percentages. With
// ScaleRescale the table slice is stretched so the paid positions share the
// whole pool, each share truncated to two decimals, so the total never
// exceeds 100. ScaleTable returns the table rows as they are.
func PayoutStructure(maxPlayers int, scale PayoutScale) []PayoutLevel {
	depth := PayoutDepth(maxPlayers)
	weights := make([]decimal.Decimal, depth)
	total := decimal.Zero
	for i := 0; i < depth; i++ {
		weights[i] = decimal.RequireFromString(payoutTable[i])
		total = total.Add(weights[i])
	}
	out := make([]PayoutLevel, depth)
	for i, w := range weights {
		pct := w
		if scale != ScaleTable {
			pct = w.Mul(hundred).DivRound(total, 8).Truncate(2)
		}
		out[i] = PayoutLevel{Position: i + 1, Percentage: pct}
	}
	return out
}

// FillPayoutAmounts computes each position's amount from the closed pool.
func FillPayoutAmounts(levels []PayoutLevel, pool ledger.Amount) {
	total := decimal.NewFromInt(pool.Total())
	for i := range levels {
		levels[i].Amount = levels[i].Percentage.Mul(total).Div(hundred).Floor().IntPart()
	}
}

// SplitAmount divides a position amount across currencies in proportion to
// mix, flooring each side. A zero mix pays entirely in GC.
func SplitAmount(amount int64, mix ledger.Amount) ledger.Amount {
	if amount <= 0 {
		return ledger.Amount{}
	}
	if mix.Negative() || mix.Total() <= 0 {
		return ledger.Amount{GC: amount}
	}
	a := decimal.NewFromInt(amount)
	total := decimal.NewFromInt(mix.Total())
	gc := a.Mul(decimal.NewFromInt(mix.GC)).Div(total).Floor().IntPart()
	sc := a.Mul(decimal.NewFromInt(mix.SC)).Div(total).Floor().IntPart()
	return ledger.Amount{GC: gc, SC: sc}
}

// payoutMix picks the ratio a tournament's prizes are split by. Freerolls
// have no buy-in mix and fall back to the pool.
func payoutMix(t *Tournament, mode PayoutSplit) ledger.Amount {
	if mode == SplitByPool || t.BuyIn.Total() <= 0 {
		return t.PrizePool
	}
	return t.BuyIn
}

func percentTotal(levels []PayoutLevel) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range levels {
		sum = sum.Add(l.Percentage)
	}
	return sum
}

package services

// ============================================================================
// ODDS ENGINE
// ============================================================================

const (
	// MinOdds and MaxOdds bound every option's probability before renormalization
	MinOdds = 0.01
	MaxOdds = 0.99

	// liquidityScale turns liquidity into price impact: impact = amount / (liquidity * liquidityScale)
	liquidityScale = 10.0
)

// PriceImpact returns how far a trade of amount moves the traded option
func PriceImpact(amount, liquidity float64) float64 {
	return amount / (liquidity * liquidityScale)
}

// UpdateOdds returns the odds after a trade on optionIndex. The traded option
// moves by the price impact, the others share the opposite move equally,
// every element is clamped to [MinOdds, MaxOdds] and the vector is then
// renormalized to sum to 1. The input slice is never modified.
//
// Invalid input (fewer than two options, index out of range, non-positive
// amount or liquidity) yields an unchanged copy.
func UpdateOdds(currentOdds []float64, optionIndex int, amount float64, isBuy bool, liquidity float64) []float64 {
	n := len(currentOdds)
	next := make([]float64, n)
	copy(next, currentOdds)

	if n < 2 || optionIndex < 0 || optionIndex >= n || amount <= 0 || liquidity <= 0 {
		return next
	}

	impact := PriceImpact(amount, liquidity)
	share := impact / float64(n-1)

	for i := range next {
		switch {
		case i == optionIndex && isBuy:
			next[i] = clampOdds(next[i] + impact)
		case i == optionIndex:
			next[i] = clampOdds(next[i] - impact)
		case isBuy:
			next[i] = clampOdds(next[i] - share)
		default:
			next[i] = clampOdds(next[i] + share)
		}
	}

	sum := 0.0
	for _, v := range next {
		sum += v
	}
	for i := range next {
		next[i] /= sum
	}
	return next
}

// UniformOdds returns n equal probabilities
func UniformOdds(n int) []float64 {
	odds := make([]float64, n)
	for i := range odds {
		odds[i] = 1 / float64(n)
	}
	return odds
}

// LeadingOption returns the index of the highest odds; the lowest index wins ties.
// It returns -1 for an empty slice.
func LeadingOption(odds []float64) int {
	best := -1
	for i, v := range odds {
		if best == -1 || v > odds[best] {
			best = i
		}
	}
	return best
}

// TrailingOption returns the index of the lowest odds; the lowest index wins ties.
func TrailingOption(odds []float64) int {
	worst := -1
	for i, v := range odds {
		if worst == -1 || v < odds[worst] {
			worst = i
		}
	}
	return worst
}

func clampOdds(v float64) float64 {
	if v < MinOdds {
		return MinOdds
	}
	if v > MaxOdds {
		return MaxOdds
	}
	return v
}

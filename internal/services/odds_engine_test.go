package services

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(v []float64) float64 {
	total := 0.0
	for _, x := range v {
		total += x
	}
	return total
}

func TestUpdateOddsWorkedExample(t *testing.T) {
	odds := UpdateOdds([]float64{0.5, 0.5}, 0, 100, true, 1000)

	require.Len(t, odds, 2)
	assert.InDelta(t, 0.51, odds[0], 1e-12)
	assert.InDelta(t, 0.49, odds[1], 1e-12)
}

func TestUpdateOddsSell(t *testing.T) {
	odds := UpdateOdds([]float64{0.5, 0.3, 0.2}, 0, 200, false, 1000)

	// impact 0.02, each other option gains 0.01
	assert.InDelta(t, 0.48, odds[0], 1e-12)
	assert.InDelta(t, 0.31, odds[1], 1e-12)
	assert.InDelta(t, 0.21, odds[2], 1e-12)
	assert.InDelta(t, 1.0, sum(odds), 1e-9)
}

func TestUpdateOddsDoesNotMutateInput(t *testing.T) {
	in := []float64{0.5, 0.5}
	_ = UpdateOdds(in, 1, 500, true, 1000)
	assert.Equal(t, []float64{0.5, 0.5}, in)
}

func TestUpdateOddsClamps(t *testing.T) {
	// impact of 1.0 pushes the bought option past the ceiling
	odds := UpdateOdds([]float64{0.5, 0.5}, 0, 10000, true, 1000)
	assert.InDelta(t, 0.99, odds[0], 1e-12)
	assert.InDelta(t, 0.01, odds[1], 1e-12)

	odds = UpdateOdds([]float64{0.5, 0.5}, 0, 10000, false, 1000)
	assert.InDelta(t, 0.01, odds[0], 1e-12)
	assert.InDelta(t, 0.99, odds[1], 1e-12)
}

func TestUpdateOddsRenormalizesBelowFloorWithManyOptions(t *testing.T) {
	// every option clamps, then the sum of 1.02 is divided back out, so the
	// trailing options end just under MinOdds
	odds := UpdateOdds([]float64{0.97, 0.01, 0.01, 0.01}, 0, 500, true, 1000)

	require.Len(t, odds, 4)
	assert.InDelta(t, 0.99/1.02, odds[0], 1e-12)
	for _, o := range odds[1:] {
		assert.InDelta(t, 0.01/1.02, o, 1e-12)
		assert.Less(t, o, MinOdds)
	}
	assert.InDelta(t, 1.0, sum(odds), 1e-12)
}

func TestUpdateOddsInvariantTwoOptions(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		p := MinOdds + rng.Float64()*(MaxOdds-MinOdds)
		current := []float64{p, 1 - p}
		amount := rng.Float64()*5000 + 0.01
		liquidity := rng.Float64()*5000 + 1
		option := rng.Intn(2)
		buy := rng.Intn(2) == 0

		odds := UpdateOdds(current, option, amount, buy, liquidity)

		require.InDelta(t, 1.0, sum(odds), 1e-9)
		for _, v := range odds {
			require.GreaterOrEqual(t, v, MinOdds-1e-12)
			require.LessOrEqual(t, v, MaxOdds+1e-12)
		}
	}
}

func TestUpdateOddsSumsToOneManyOptions(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		n := 3 + rng.Intn(4)
		current := UniformOdds(n)
		for step := 0; step < 5; step++ {
			current = UpdateOdds(current, rng.Intn(n), rng.Float64()*3000+1, rng.Intn(2) == 0, 1000)
		}

		require.InDelta(t, 1.0, sum(current), 1e-9)
		for _, v := range current {
			require.Greater(t, v, 0.0)
			require.Less(t, v, 1.0)
		}
	}
}

func TestUpdateOddsBuyThenSellMovesBack(t *testing.T) {
	start := []float64{0.3, 0.7}
	afterBuy := UpdateOdds(start, 0, 400, true, 1000)
	afterSell := UpdateOdds(afterBuy, 0, 400, false, 1000)

	require.Greater(t, afterBuy[0], start[0])
	assert.Less(t, afterSell[0], afterBuy[0])
	assert.LessOrEqual(t, math.Abs(afterSell[0]-start[0]), math.Abs(afterBuy[0]-start[0]))
	assert.InDelta(t, start[0], afterSell[0], 1e-9)
}

func TestUpdateOddsInvalidInput(t *testing.T) {
	base := []float64{0.5, 0.5}
	assert.Equal(t, base, UpdateOdds(base, 2, 10, true, 1000))
	assert.Equal(t, base, UpdateOdds(base, -1, 10, true, 1000))
	assert.Equal(t, base, UpdateOdds(base, 0, 0, true, 1000))
	assert.Equal(t, base, UpdateOdds(base, 0, 10, true, 0))
	assert.Equal(t, []float64{1}, UpdateOdds([]float64{1}, 0, 10, true, 1000))
}

func TestLeadingAndTrailingOption(t *testing.T) {
	assert.Equal(t, 0, LeadingOption([]float64{0.7, 0.3}))
	assert.Equal(t, 1, LeadingOption([]float64{0.2, 0.4, 0.4}))
	assert.Equal(t, -1, LeadingOption(nil))
	assert.Equal(t, 0, TrailingOption([]float64{0.2, 0.4, 0.2, 0.2}))
}

func TestUniformOdds(t *testing.T) {
	assert.Equal(t, []float64{0.5, 0.5}, UniformOdds(2))
	odds := UniformOdds(3)
	assert.InDelta(t, 1.0, sum(odds), 1e-12)
}

func BenchmarkUpdateOdds(b *testing.B) {
	odds := UniformOdds(4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		odds = UpdateOdds(odds, i%4, 25, i%3 != 0, 1000)
	}
}

func BenchmarkUpdateOddsParallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		odds := UniformOdds(2)
		for pb.Next() {
			odds = UpdateOdds(odds, 0, 10, true, 1000)
		}
	})
}

package hotels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTakeHighestPriced(t *testing.T) {
	in := []Candidate{
		{ID: "A", NightlyPrice: 100},
		{ID: "B", NightlyPrice: 80},
		{ID: "C", NightlyPrice: 120},
	}

	out := TakeHighestPriced(in, 2)

	assert.Len(t, out, 2)
	assert.Equal(t, "C", out[0].ID)
	assert.Equal(t, "A", out[1].ID)
	// input slice is left untouched
	assert.Equal(t, "A", in[0].ID)
}

func TestTakeHighestPricedLimitLargerThanInput(t *testing.T) {
	in := []Candidate{{ID: "A", NightlyPrice: 50}}
	assert.Len(t, TakeHighestPriced(in, 10), 1)
}

func TestTakeBestDealsCutoffIsExclusive(t *testing.T) {
	in := []Candidate{
		{ID: "near", NightlyPrice: 90, DistanceKM: 1.9},
		{ID: "edge", NightlyPrice: 10, DistanceKM: 2.0},
		{ID: "far", NightlyPrice: 5, DistanceKM: 3.5},
	}

	out := TakeBestDeals(in, 2.0, 10)

	assert.Len(t, out, 1)
	assert.Equal(t, "near", out[0].ID)
}

func TestTakeBestDealsOrdersByPriceThenDistance(t *testing.T) {
	in := []Candidate{
		{ID: "a", NightlyPrice: 70, DistanceKM: 1.5},
		{ID: "b", NightlyPrice: 70, DistanceKM: 0.5},
		{ID: "c", NightlyPrice: 40, DistanceKM: 1.9},
	}

	out := TakeBestDeals(in, 5, 2)

	assert.Equal(t, []string{"c", "b"}, []string{out[0].ID, out[1].ID})
}

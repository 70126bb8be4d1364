package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCityName(t *testing.T) {
	for _, ok := range []string{"London", "New York", "Rostov-on-Don", "  Oslo  ", "São Paulo"} {
		assert.True(t, ValidCityName(ok), "%q should be accepted", ok)
	}
	for _, bad := range []string{"", "NY", "42", "London1", "/low"} {
		assert.False(t, ValidCityName(bad), "%q should be rejected", bad)
	}
}

func TestParseHotelCountBounds(t *testing.T) {
	n, err := ParseHotelCount(" 7 ", 15)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	for _, bad := range []string{"0", "-1", "16", "many", ""} {
		_, err := ParseHotelCount(bad, 15)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "input %q", bad)
		assert.NotEmpty(t, verr.Message)
	}
}

func TestParseImageCountBounds(t *testing.T) {
	n, err := ParseImageCount("10", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	_, err = ParseImageCount("11", 10)
	assert.Error(t, err)
	_, err = ParseImageCount("0", 10)
	assert.Error(t, err)
}

func TestParseDistanceIsUnboundedAbove(t *testing.T) {
	n, err := ParseDistance("250")
	require.NoError(t, err)
	assert.Equal(t, 250, n)

	_, err = ParseDistance("0")
	assert.Error(t, err)
	_, err = ParseDistance("near")
	assert.Error(t, err)
}

func TestParseLowPriceAllowsZero(t *testing.T) {
	n, err := ParseLowPrice("0")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = ParseLowPrice("-5")
	assert.Error(t, err)
}

func TestParseHighPriceDistinguishesFailures(t *testing.T) {
	n, err := ParseHighPrice("120", 50)
	require.NoError(t, err)
	assert.Equal(t, 120, n)

	// equal to the minimum is fine
	_, err = ParseHighPrice("50", 50)
	assert.NoError(t, err)

	var negErr, lowErr *ValidationError
	_, err = ParseHighPrice("-1", 50)
	require.ErrorAs(t, err, &negErr)
	_, err = ParseHighPrice("30", 50)
	require.ErrorAs(t, err, &lowErr)
	assert.NotEqual(t, negErr.Message, lowErr.Message)
}

func TestAfterImagesBranch(t *testing.T) {
	next, done := afterImages("bestdeals")
	assert.False(t, done)
	assert.Equal(t, StateAwaitingDistance, next)

	_, done = afterImages("low")
	assert.True(t, done)
	_, done = afterImages("high")
	assert.True(t, done)
}

package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_FallsBackToBase(t *testing.T) {
	assert.Equal(t, "USD", Lookup("usd").Code)
	assert.Equal(t, BaseCode, Lookup("XYZ").Code)
	assert.Equal(t, BaseCode, Lookup("").Code)

	_, ok := Find("JPY")
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	all := All()
	require.Len(t, all, 5)
	all[0].Rate = 42

	assert.Equal(t, 1.0, Lookup("INR").Rate)
	assert.Equal(t, []string{"INR", "USD", "EUR", "GBP", "AED"}, Codes())
}

func TestFormat(t *testing.T) {
	inr := Lookup("INR")
	usd := Lookup("USD")

	assert.Equal(t, "₹1,89,000.00", inr.Format(189000))
	assert.Equal(t, "₹47,250.00", inr.Format(47250))
	assert.Equal(t, "₹1,00,00,000.00", inr.Format(1e7))
	assert.Equal(t, "₹-12,34,567.89", inr.Format(-1234567.89))
	assert.Equal(t, "INR 1,89,000.00", inr.FormatPlain(189000))
	assert.Equal(t, "₹472.50", inr.Format(472.5))
	assert.Equal(t, "₹0.00", inr.Format(0))
	assert.Equal(t, "₹-10.00", inr.Format(-10))
	assert.Equal(t, "$2,268.00", usd.Format(189000))
	assert.Equal(t, "USD 5.67", usd.FormatPlain(472.5))
	assert.Equal(t, "$12,000,000.00", usd.Format(1e9))
}

func TestFormat_BeyondInt64(t *testing.T) {
	inr := Lookup("INR")
	usd := Lookup("USD")

	assert.Equal(t, "₹1,00,00,00,00,00,00,000.00", inr.Format(1e15))
	assert.Equal(t, "₹1,00,00,00,00,00,00,00,00,00,000.00", inr.Format(1e21))
	assert.Equal(t, "₹-1,00,00,00,00,00,00,00,00,00,000.00", inr.Format(-1e21))
	assert.Equal(t, "$12,000,000,000,000,000,000.00", usd.Format(1e21))
	assert.Equal(t, "INR Infinity", inr.FormatPlain(math.Inf(1)))
}

func TestConvert_RoundsToCents(t *testing.T) {
	assert.Equal(t, 5.67, Lookup("USD").Convert(472.5))
	assert.Equal(t, 0.01, Lookup("GBP").Convert(1))
}

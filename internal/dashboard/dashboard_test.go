package dashboard

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GiftSync/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestHighValueFilterOverUntaggedItems(t *testing.T) {
	items := []models.GiftItem{
		{ID: uuid.New(), Name: "Headphones", Status: models.ItemStatusRequired},
		{ID: uuid.New(), Name: "Scarf", Status: models.ItemStatusOptional},
	}

	assert.Empty(t, Apply(items, FilterHighValue))
	assert.Len(t, items, 2)
}

func TestApplyAndCounts(t *testing.T) {
	items := []models.GiftItem{
		{Name: "TV", Status: models.ItemStatusRequired, ValueTag: ptr(models.ValueTagHigh)},
		{Name: "Socks", Status: models.ItemStatusOptional},
		{Name: "Book", Status: models.ItemStatusRequired, ValueTag: ptr("LOW")},
	}

	required := Apply(items, FilterRequired)
	require.Len(t, required, 2)
	assert.Equal(t, "TV", required[0].Name)
	assert.Equal(t, "Book", required[1].Name)

	assert.Equal(t, map[Filter]int{
		FilterAll:       3,
		FilterRequired:  2,
		FilterOptional:  1,
		FilterHighValue: 1,
	}, Counts(items))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("HIGH")
	require.NoError(t, err)
	assert.Equal(t, FilterHighValue, f)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseFilter("cheap")
	assert.Error(t, err)
}

func TestSum(t *testing.T) {
	items := []models.GiftItem{
		{PriceLow: ptr(10.0), PriceHigh: ptr(20.0), IsCompleted: true},
		{PriceLow: ptr(5.5), PriceHigh: ptr(7.5)},
		{PriceHigh: ptr(100.0)},
	}

	assert.Equal(t, Totals{
		Count:         3,
		Completed:     1,
		Low:           15.5,
		High:          127.5,
		RemainingLow:  5.5,
		RemainingHigh: 107.5,
	}, Sum(items))
}

func TestPrivacyMasksPrices(t *testing.T) {
	var p Privacy

	assert.Equal(t, "$100-$250", p.FormatRange(ptr(100.0), ptr(250.0)))
	assert.Equal(t, "N/A", p.FormatRange(ptr(100.0), nil))
	assert.Equal(t, "$19.99", p.FormatPrice(ptr(19.99)))
	assert.Equal(t, "1/3 purchased · $16 - $128", p.FormatTotals(Totals{Count: 3, Completed: 1, Low: 15.5, High: 127.5}))

	assert.True(t, p.Toggle())
	assert.Equal(t, Mask, p.FormatRange(ptr(100.0), ptr(250.0)))
	assert.Equal(t, Mask, p.FormatPrice(nil))
	assert.Equal(t, "1/3 purchased · "+Mask, p.FormatTotals(Totals{Count: 3, Completed: 1}))

	assert.False(t, p.Toggle())
	assert.False(t, p.Blurred())
}

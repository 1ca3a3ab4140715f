package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)

func TestRecordPriceAppendsOnRealMove(t *testing.T) {
	p := Product{ID: "x"}

	p.RecordPrice(19.99, "USD", "$19.99", testNow)
	require.Len(t, p.PriceHistory, 1)

	p.RecordPrice(17.49, "USD", "$17.49", testNow.Add(time.Hour))
	require.Len(t, p.PriceHistory, 2)
	assert.InDelta(t, 17.49, p.PriceHistory[1].Amount, 0.001)
}

func TestRecordPriceRefreshesWithinEpsilon(t *testing.T) {
	p := Product{ID: "x"}
	p.RecordPrice(19.99, "USD", "$19.99", testNow)

	later := testNow.Add(2 * time.Hour)
	p.RecordPrice(19.995, "", "$19.99 approx", later)

	require.Len(t, p.PriceHistory, 1, "sub-epsilon moves refresh in place")
	latest := p.LatestPricePoint()
	require.NotNil(t, latest)
	assert.Equal(t, later, latest.CapturedAt)
	assert.Equal(t, "$19.99 approx", latest.Display)
	assert.Equal(t, "USD", latest.Currency, "empty incoming currency keeps the stored one")
	assert.InDelta(t, 19.99, latest.Amount, 0.001, "the stored amount survives a refresh")
}

func TestLatestPricePointEmpty(t *testing.T) {
	p := Product{ID: "x"}
	assert.Nil(t, p.LatestPricePoint())
}

func TestPriceDropPercent(t *testing.T) {
	tests := []struct {
		name    string
		amounts []float64
		want    float64
	}{
		{"no history", nil, 0},
		{"single point", []float64{20}, 0},
		{"price rose", []float64{20, 25}, 0},
		{"quarter off peak", []float64{40, 30}, 25},
		{"recovers partway", []float64{40, 20, 30}, 25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Product{ID: "x"}
			when := testNow
			for _, amount := range tc.amounts {
				p.RecordPrice(amount, "USD", "", when)
				when = when.Add(time.Hour)
			}
			assert.InDelta(t, tc.want, p.PriceDropPercent(), 0.001)
		})
	}
}

func TestCooldownEntry(t *testing.T) {
	entry := CooldownEntry{Retailer: "ebay", ID: "ebay-123", AddedAt: testNow.AddDate(0, 0, -10)}

	assert.Equal(t, "ebay|ebay-123", entry.Key())
	assert.True(t, entry.IsActive(14*24*time.Hour, testNow))
	assert.False(t, entry.IsActive(7*24*time.Hour, testNow))
}

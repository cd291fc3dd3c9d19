package market

import (
	"testing"

	"tilapia-hub-api-server/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name     string
		location string
		weight   float64
		quality  Quality
		want     float64
	}{
		{"standard kisumu", "Kisumu", 10, QualityStandard, 4500},
		{"premium nairobi", "Nairobi", 10, QualityPremium, 6500},
		{"empty quality is standard", "Mombasa", 2, "", 960},
		{"unknown location uses default", "Kakamega", 4, QualityStandard, 1800},
		{"upper bound", "Thika", 500, QualityStandard, 235000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := EstimateCost(tt.location, tt.weight, tt.quality)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, est.Total, 1e-9)
		})
	}

	for _, w := range []float64{0, 0.5, 501} {
		_, err := EstimateCost("Kisumu", w, QualityStandard)
		assert.ErrorIs(t, err, ledger.ErrValidation, "weight %v", w)
	}
	_, err := EstimateCost("Kisumu", 10, "luxury")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestLocations(t *testing.T) {
	assert.Equal(t, []string{"All", "Kisumu", "Nairobi", "Mombasa", "Nakuru", "Eldoret", "Thika"}, Locations())
	assert.True(t, KnownLocation("Nakuru"))
	assert.False(t, KnownLocation("nakuru"))
	assert.True(t, MarketLocation("Nakuru"))
	assert.False(t, MarketLocation("All"))
	assert.Len(t, Prices(), 6)
}

func TestAlerts(t *testing.T) {
	all := Alerts("")
	require.Len(t, all, 4)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 4, all[3].ID)

	s := Summarize(all)
	assert.Equal(t, AlertSummary{ActiveAlerts: 4, HighSeverity: 1, RegionsAffected: 11}, s)

	medium := Alerts(SeverityMedium)
	assert.Len(t, medium, 2)
	assert.Equal(t, 0, Summarize(medium).HighSeverity)
}

func TestTips(t *testing.T) {
	assert.Len(t, Tips(""), 6)
	health := Tips("Health")
	require.Len(t, health, 1)
	assert.Equal(t, "Biosecurity Measures", health[0].Title)
}

// Package market serves the reference information shown next to the
// marketplace: regional prices, a cost estimator, disease alerts and farm tips.
package market

import (
	"fmt"
	"math"
	"slices"

	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/models"
)

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type Quality string

const (
	QualityStandard Quality = "standard"
	QualityPremium  Quality = "premium"
)

// LocationPrice is the going farm-gate price in KSh per kg.
type LocationPrice struct {
	Location   string  `json:"location"`
	PricePerKg float64 `json:"pricePerKg"`
	Trend      Trend   `json:"trend"`
}

var prices = []LocationPrice{
	{"Kisumu", 450, TrendUp},
	{"Nairobi", 520, TrendStable},
	{"Mombasa", 480, TrendDown},
	{"Nakuru", 460, TrendUp},
	{"Eldoret", 440, TrendStable},
	{"Thika", 470, TrendUp},
}

const (
	DefaultPricePerKg = 450
	PremiumMultiplier = 1.25
	MinEstimateKg     = 1
	MaxEstimateKg     = 500
)

// Prices returns the market price table.
func Prices() []LocationPrice {
	return slices.Clone(prices)
}

// Locations returns the marketplace filter options, "All" first.
func Locations() []string {
	out := []string{models.LocationAll}
	for _, p := range prices {
		out = append(out, p.Location)
	}
	return out
}

// KnownLocation reports whether loc is a filter option.
func KnownLocation(loc string) bool {
	return slices.Contains(Locations(), loc)
}

// MarketLocation reports whether loc is a priced market a profile can be
// located in. "All" is a filter wildcard, not a location.
func MarketLocation(loc string) bool {
	for _, p := range prices {
		if p.Location == loc {
			return true
		}
	}
	return false
}

func basePrice(location string) float64 {
	for _, p := range prices {
		if p.Location == location {
			return p.PricePerKg
		}
	}
	return DefaultPricePerKg
}

type Estimate struct {
	Location   string  `json:"location"`
	WeightKg   float64 `json:"weightKg"`
	Quality    Quality `json:"quality"`
	PricePerKg float64 `json:"pricePerKg"`
	Multiplier float64 `json:"multiplier"`
	Total      float64 `json:"total"`
}

// EstimateCost prices weightKg of fish bought in location. Unknown locations
// use DefaultPricePerKg; an empty quality means standard.
func EstimateCost(location string, weightKg float64, quality Quality) (*Estimate, error) {
	const op = "market.Estimate"
	if math.IsNaN(weightKg) || weightKg < MinEstimateKg || weightKg > MaxEstimateKg {
		return nil, &ledger.Error{Op: op, Kind: ledger.ErrValidation,
			Msg: fmt.Sprintf("weight must be between %d and %d kg", MinEstimateKg, MaxEstimateKg)}
	}

	multiplier := 1.0
	switch quality {
	case "", QualityStandard:
		quality = QualityStandard
	case QualityPremium:
		multiplier = PremiumMultiplier
	default:
		return nil, &ledger.Error{Op: op, Kind: ledger.ErrValidation,
			Msg: fmt.Sprintf("quality must be %s or %s", QualityStandard, QualityPremium)}
	}

	base := basePrice(location)
	return &Estimate{
		Location:   location,
		WeightKg:   weightKg,
		Quality:    quality,
		PricePerKg: base,
		Multiplier: multiplier,
		Total:      weightKg * base * multiplier,
	}, nil
}

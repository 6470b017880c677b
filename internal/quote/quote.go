// Package quote prices freight for the public calculators.
package quote

import (
	"errors"
	"math"
	"strings"

	"github.com/jaybesin/logistics-console/internal/models"
)

const (
	cm3PerCBM = 1_000_000

	commissionPerCBM      = 20
	commissionBonusVolume = 50
	commissionBonus       = 500
)

// ErrInvalidDimensions is returned for negative or non-finite measurements.
var ErrInvalidDimensions = errors.New("dimensions must be non-negative numbers")

// AirCategory selects an air freight rate.
type AirCategory string

const (
	AirNormal  AirCategory = "normal"
	AirBattery AirCategory = "battery"
	AirExpress AirCategory = "express"
)

// SeaQuote is the price of a box measured in centimetres.
type SeaQuote struct {
	LengthCM float64 `json:"length_cm"`
	WidthCM  float64 `json:"width_cm"`
	HeightCM float64 `json:"height_cm"`
	CBM      float64 `json:"cbm"`
	Rate     float64 `json:"rate"`
	Cost     float64 `json:"cost"`
}

// AirQuote is the price of a parcel by weight.
type AirQuote struct {
	WeightKG float64     `json:"weight_kg"`
	Category AirCategory `json:"category"`
	Rate     float64     `json:"rate"`
	Cost     float64     `json:"cost"`
}

// Sea prices l×w×h centimetres at the settings sea rate per CBM.
func Sea(lengthCM, widthCM, heightCM float64, settings models.Settings) (SeaQuote, error) {
	for _, v := range []float64{lengthCM, widthCM, heightCM} {
		if !valid(v) {
			return SeaQuote{}, ErrInvalidDimensions
		}
	}
	cbm := lengthCM * widthCM * heightCM / cm3PerCBM
	return SeaQuote{
		LengthCM: lengthCM,
		WidthCM:  widthCM,
		HeightCM: heightCM,
		CBM:      cbm,
		Rate:     settings.SeaRate,
		Cost:     cbm * settings.SeaRate,
	}, nil
}

// Air prices weightKG at the rate for category. Unknown categories and
// categories without a configured rate fall back to normal.
func Air(weightKG float64, category string, settings models.Settings) (AirQuote, error) {
	if !valid(weightKG) {
		return AirQuote{}, ErrInvalidDimensions
	}
	cat := AirCategory(strings.ToLower(strings.TrimSpace(category)))
	var rate float64
	switch cat {
	case AirBattery:
		rate = settings.AirRates.Battery
	case AirExpress:
		rate = settings.AirRates.Express
	}
	if rate <= 0 {
		cat = AirNormal
		rate = settings.AirRates.Normal
	}
	return AirQuote{WeightKG: weightKG, Category: cat, Rate: rate, Cost: weightKG * rate}, nil
}

// Commission projects an agent's earnings for a monthly volume in CBM.
func Commission(volumeCBM float64) float64 {
	if !valid(volumeCBM) {
		return 0
	}
	c := volumeCBM * commissionPerCBM
	if volumeCBM > commissionBonusVolume {
		c += commissionBonus
	}
	return c
}

func valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

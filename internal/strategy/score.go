package strategy

import (
	"math"

	"tradecover/internal/models"
)

// deltaScore measures how close a leg's delta sits to the target. Deltas
// are compared by magnitude so put and call legs share one scale. The
// score peaks at 1.0 on target and can go negative; weighting penalizes
// rather than clamps.
func deltaScore(delta, target float64) float64 {
	return 1 - 2*math.Abs(math.Abs(delta)-target)
}

// premiumScore is the premium yield against the underlying, expressed as a
// percentage and halved to keep it on roughly the same scale as the other
// sub-scores.
func premiumScore(premium, underlying float64) float64 {
	if underlying <= 0 {
		return 0
	}
	return (premium / underlying * 100) / 2
}

// expiryScore measures proximity to the target expiry on a 30-day scale.
func expiryScore(dte, targetDays int) float64 {
	return 1 - math.Abs(float64(dte-targetDays))/30
}

// legWeights are the per-risk weightings for single-leg strategies. The
// conservative table favors probability (delta), the aggressive table
// favors premium capture.
type legWeights struct {
	Delta   float64
	Premium float64
	Expiry  float64
}

func weightsForRisk(risk models.RiskLevel) legWeights {
	switch risk {
	case models.RiskConservative:
		return legWeights{Delta: 0.5, Premium: 0.2, Expiry: 0.3}
	case models.RiskAggressive:
		return legWeights{Delta: 0.2, Premium: 0.6, Expiry: 0.2}
	default: // moderate
		return legWeights{Delta: 0.3, Premium: 0.4, Expiry: 0.3}
	}
}

// scoreLeg combines the three sub-scores with the risk-level weighting.
func scoreLeg(w legWeights, delta, deltaTarget, premium, underlying float64, dte, targetDays int) float64 {
	return deltaScore(delta, deltaTarget)*w.Delta +
		premiumScore(premium, underlying)*w.Premium +
		expiryScore(dte, targetDays)*w.Expiry
}

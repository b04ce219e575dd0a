package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Weights are the score coefficients for the three match dimensions.
// Amount and date are hard gates, so for any candidate their terms are
// always the full weight.
type Weights struct {
	Amount      float64 `yaml:"amount"`
	Date        float64 `yaml:"date"`
	Description float64 `yaml:"description"`
}

// Config holds matcher thresholds.
type Config struct {
	DateWindowDays int             `yaml:"date_window_days"`
	AmountEpsilon  decimal.Decimal `yaml:"amount_epsilon"`
	DescThreshold  float64         `yaml:"desc_threshold"`
	MatchScore     float64         `yaml:"match_score"`
	ReviewScore    float64         `yaml:"review_score"`
	Weights        Weights         `yaml:"weights"`
}

// MaxDateWindowDays bounds the matching window to one leap year either way.
const MaxDateWindowDays = 366

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		DateWindowDays: 1,
		AmountEpsilon:  decimal.New(1, -6),
		DescThreshold:  0.4,
		MatchScore:     0.85,
		ReviewScore:    0.60,
		Weights:        Weights{Amount: 0.5, Date: 0.3, Description: 0.2},
	}
}

// Validate rejects configurations the matcher cannot apply.
func (c Config) Validate() error {
	if c.DateWindowDays < 0 || c.DateWindowDays > MaxDateWindowDays {
		return fmt.Errorf("date window must be between 0 and %d days, got %d", MaxDateWindowDays, c.DateWindowDays)
	}
	if !c.AmountEpsilon.IsPositive() {
		return fmt.Errorf("amount epsilon must be positive, got %s", c.AmountEpsilon)
	}
	if c.ReviewScore > c.MatchScore {
		return fmt.Errorf("review score %.2f exceeds match score %.2f", c.ReviewScore, c.MatchScore)
	}
	return nil
}

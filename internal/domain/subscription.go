package domain

import (
	"math"
	"time"
)

// Tier is the subscription health classification.
type Tier string

const (
	TierHealthy  Tier = "healthy"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
	TierExpired  Tier = "expired"
)

// Health is derived from a subscription end and the current time. It is never
// stored.
type Health struct {
	Tier          Tier
	DaysRemaining int
}

const day = 24 * time.Hour

// Classify returns the health of a subscription ending at end, as seen at now.
// Days remaining are rounded up, so any positive remainder counts as a day.
func Classify(end, now time.Time) Health {
	days := int(math.Ceil(float64(end.Sub(now)) / float64(day)))

	var tier Tier
	switch {
	case days <= 0:
		tier = TierExpired
	case days <= 7:
		tier = TierCritical
	case days <= 30:
		tier = TierWarning
	default:
		tier = TierHealthy
	}
	return Health{Tier: tier, DaysRemaining: days}
}

const (
	MinExtensionMonths = 1
	MaxExtensionMonths = 120
)

// ValidateMonths checks a subscription length in months.
func ValidateMonths(months int) error {
	if months < MinExtensionMonths || months > MaxExtensionMonths {
		return &ValidationError{Field: "months", Reason: ReasonOutOfRange,
			Message: "months must be between 1 and 120"}
	}
	return nil
}

// ExtendEnd computes a new subscription end by adding months to the later of now
// and the current end. An expired subscription therefore restarts from now.
func ExtendEnd(currentEnd, now time.Time, months int) time.Time {
	base := currentEnd
	if now.After(base) {
		base = now
	}
	return base.AddDate(0, months, 0)
}

// Package status maps dashboard numbers to the alert tiers shown to users.
package status

import "github.com/theirongolddev/kantong/internal/model"

// Tier is a discrete alert level.
type Tier string

const (
	Safe        Tier = "safe"
	Warning     Tier = "warning"
	Critical    Tier = "critical"
	Progress    Tier = "progress"
	Achieved    Tier = "achieved"
	DataMissing Tier = "data_missing"
)

// Tiers is the classification of one snapshot.
//
// Risk drives the headline risk card and Banner the lifestyle quick alert.
// They intentionally use different warning cut points (60 and 80).
type Tiers struct {
	Risk      Tier `json:"risk"`
	Banner    Tier `json:"banner"`
	Emergency Tier `json:"emergency"`
}

// RiskTier classifies the headline lifestyle risk score.
func RiskTier(score int) Tier {
	switch {
	case score >= 100:
		return Critical
	case score > 60:
		return Warning
	default:
		return Safe
	}
}

// BannerTier classifies the lifestyle quick-alert banner.
func BannerTier(score int) Tier {
	switch {
	case score >= 100:
		return Critical
	case score > 80:
		return Warning
	default:
		return Safe
	}
}

// EmergencyTier classifies the emergency-fund completion percentage.
func EmergencyTier(ratio float64) Tier {
	switch {
	case ratio < 50:
		return Critical
	case ratio < 100:
		return Progress
	default:
		return Achieved
	}
}

// Classify derives every tier for s. Without a monthly income nothing
// can be judged, so all tiers are DataMissing.
func Classify(s model.Snapshot) Tiers {
	if !s.Profile.HasIncome() {
		return Tiers{Risk: DataMissing, Banner: DataMissing, Emergency: DataMissing}
	}
	return Tiers{
		Risk:      RiskTier(s.LifestyleRiskScore),
		Banner:    BannerTier(s.LifestyleRiskScore),
		Emergency: EmergencyTier(s.EmergencyRatio),
	}
}

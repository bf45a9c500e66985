package enums

import "fmt"

// RankingType selects one of the daily leaderboard families.
type RankingType string

const (
	RankingLike  RankingType = "like"
	RankingView  RankingType = "view"
	RankingOrder RankingType = "order"
	RankingAll   RankingType = "all"
)

var validRankingTypes = []RankingType{
	RankingLike,
	RankingView,
	RankingOrder,
	RankingAll,
}

// IsValid reports whether the value is a known leaderboard family.
func (r RankingType) IsValid() bool {
	for _, candidate := range validRankingTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRankingType converts raw input into RankingType.
func ParseRankingType(value string) (RankingType, error) {
	for _, candidate := range validRankingTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ranking type %q", value)
}

package steam

import (
	"sort"
	"time"
)

// Game is an owned game as reported by the Steam Web API.
type Game struct {
	ID              uint32     `json:"id" toml:"id"`
	Name            string     `json:"name" toml:"name"`
	PlaytimeMinutes int        `json:"playtime_minutes" toml:"playtime_minutes"`
	IconURL         string     `json:"icon_url,omitempty" toml:"icon_url,omitempty"`
	LastPlayed      *time.Time `json:"last_played,omitempty" toml:"last_played,omitempty"`
}

// Achievement is one achievement of a game together with the player's status.
// GlobalPercentage is nil unless it was joined in with JoinGlobalPercentages.
type Achievement struct {
	APIName          string     `json:"api_name" toml:"api_name"`
	DisplayName      string     `json:"display_name" toml:"display_name"`
	Description      string     `json:"description,omitempty" toml:"description,omitempty"`
	Achieved         bool       `json:"achieved" toml:"achieved"`
	UnlockedAt       *time.Time `json:"unlock_timestamp,omitempty" toml:"unlock_timestamp,omitempty"`
	GlobalPercentage *float64   `json:"global_percentage,omitempty" toml:"global_percentage,omitempty"`
}

// AchievementList is the per-player achievement listing for one game, in API order.
type AchievementList struct {
	GameName     string
	Achievements []Achievement
}

// JoinGlobalPercentages returns a copy of achievements with GlobalPercentage
// filled from percentages, keyed by APIName. Achievements without a matching
// entry keep a nil percentage; none are dropped and the order is preserved.
func JoinGlobalPercentages(achievements []Achievement, percentages map[string]float64) []Achievement {
	joined := make([]Achievement, len(achievements))
	for i, a := range achievements {
		if p, ok := percentages[a.APIName]; ok {
			a.GlobalPercentage = &p
		} else {
			a.GlobalPercentage = nil
		}
		joined[i] = a
	}
	return joined
}

// CountUnlocked returns how many of the achievements are unlocked and the total.
func CountUnlocked(achievements []Achievement) (unlocked, total int) {
	for _, a := range achievements {
		if a.Achieved {
			unlocked++
		}
	}
	return unlocked, len(achievements)
}

// MostRecentlyPlayed returns at most limit games ordered by LastPlayed,
// newest first. Games that were never played sort last. The input is not modified.
func MostRecentlyPlayed(games []Game, limit int) []Game {
	sorted := make([]Game, len(games))
	copy(sorted, games)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].LastPlayed, sorted[j].LastPlayed
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

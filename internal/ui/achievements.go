package ui

import (
	"fmt"

	"github.com/hieropold/trogue/internal/core/steam"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"

	// DefaultUnlockedPattern and DefaultLockedPattern are the row formats used
	// when no pattern is given on the command line.
	DefaultUnlockedPattern = "n - s (t)"
	DefaultLockedPattern   = "n"
)

// AchievementTokens are the tokens understood by achievement patterns.
var AchievementTokens = Tokens[steam.Achievement]{
	'i': {Description: "achievement api name", Render: func(a steam.Achievement) string { return a.APIName }},
	'n': {Description: "achievement name", Render: func(a steam.Achievement) string { return a.DisplayName }},
	'd': {Description: "achievement description", Render: func(a steam.Achievement) string { return a.Description }},
	's': {Description: "status (Y unlocked, N locked)", Render: func(a steam.Achievement) string {
		if a.Achieved {
			return "Y"
		}
		return "N"
	}},
	't': {Description: "unlock time (UTC)", Render: func(a steam.Achievement) string {
		if a.UnlockedAt == nil {
			return "-"
		}
		return a.UnlockedAt.UTC().Format(DateTimeLayout)
	}},
	'g': {Description: "global unlock percentage (empty when unknown)", Render: func(a steam.Achievement) string {
		if a.GlobalPercentage == nil {
			return ""
		}
		return FormatPercentage(*a.GlobalPercentage)
	}},
}

// StatusFilter selects achievements by unlock state.
type StatusFilter int

const (
	AllAchievements StatusFilter = iota
	OnlyLocked
	OnlyUnlocked
)

// FilterAchievements keeps the achievements matching filter, in order.
func FilterAchievements(achievements []steam.Achievement, filter StatusFilter) []steam.Achievement {
	if filter == AllAchievements {
		return achievements
	}
	kept := make([]steam.Achievement, 0, len(achievements))
	for _, a := range achievements {
		if (filter == OnlyUnlocked) == a.Achieved {
			kept = append(kept, a)
		}
	}
	return kept
}

// AchievementView controls how achievement rows are rendered.
type AchievementView struct {
	// Pattern overrides the default unlocked/locked row formats when set.
	Pattern *Pattern[steam.Achievement]
	// ShowGlobal appends " <pct>%" to rows whose global percentage is known.
	ShowGlobal bool
}

var (
	unlockedPattern = MustParsePattern(DefaultUnlockedPattern, AchievementTokens)
	lockedPattern   = MustParsePattern(DefaultLockedPattern, AchievementTokens)
)

// AchievementLines renders one line per achievement, in input order.
func AchievementLines(achievements []steam.Achievement, view AchievementView) []string {
	lines := make([]string, len(achievements))
	for i, a := range achievements {
		pattern := view.Pattern
		if pattern == nil {
			pattern = lockedPattern
			if a.Achieved {
				pattern = unlockedPattern
			}
		}
		line := pattern.Format(a)
		if view.ShowGlobal && a.GlobalPercentage != nil {
			line += " " + FormatPercentage(*a.GlobalPercentage)
		}
		lines[i] = line
	}
	return lines
}

// FormatPercentage renders p (0-100) with one decimal, e.g. "12.3%".
func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// Package ui turns Steam records into the text trogue prints. Everything here
// is pure: callers decide where the lines go.
package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hieropold/trogue/internal/core/steam"
)

// DefaultGamePattern prints "[id] name".
const DefaultGamePattern = "[i] n"

// GameTokens are the tokens understood by game list patterns.
var GameTokens = Tokens[steam.Game]{
	'i': {Description: "game id", Render: func(g steam.Game) string { return strconv.FormatUint(uint64(g.ID), 10) }},
	'n': {Description: "game name", Render: func(g steam.Game) string { return g.Name }},
	'p': {Description: "total playtime in hours", Render: func(g steam.Game) string { return FormatPlaytime(g.PlaytimeMinutes) }},
	'l': {Description: "last played date", Render: func(g steam.Game) string {
		if g.LastPlayed == nil {
			return "never"
		}
		return g.LastPlayed.UTC().Format(DateLayout)
	}},
}

// FilterGames keeps the games whose name contains filter, ignoring case.
// The relative order is preserved and an empty filter keeps everything.
func FilterGames(games []steam.Game, filter string) []steam.Game {
	if filter == "" {
		return games
	}
	needle := strings.ToLower(filter)
	matched := make([]steam.Game, 0, len(games))
	for _, g := range games {
		if strings.Contains(strings.ToLower(g.Name), needle) {
			matched = append(matched, g)
		}
	}
	return matched
}

// GameLines formats each game through pattern.
func GameLines(games []steam.Game, pattern *Pattern[steam.Game]) []string {
	lines := make([]string, len(games))
	for i, g := range games {
		lines[i] = pattern.Format(g)
	}
	return lines
}

// FormatPlaytime renders minutes as hours with one decimal, e.g. "12.5h".
func FormatPlaytime(minutes int) string {
	return fmt.Sprintf("%.1fh", float64(minutes)/60)
}

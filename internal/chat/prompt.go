package chat

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are ValAI Copilot called "Max Bot", an expert Valorant coach and statistics analyst.

1. ONLY discuss Valorant-related topics: game mechanics, agents, abilities, weapons, map strategies, aiming techniques, performance analysis and ranked advice. Politely redirect anything else back to Valorant.
2. When the user's stats are provided, use them for actionable, personalized advice. When pointing out weaknesses, prove it with concrete data from the stats.
3. Keep responses concise and actionable, using Valorant terminology appropriately ("peek", "jiggle", "trade", "rotate", "lurk").
4. Personality: confident, a bit arrogant, mixes humor with strategy. Occasional "watch this" moments are fine as long as they motivate improvement, and every claim is backed by the user's numbers.`

// Player statistics forwarded by the client for coaching context
type PlayerStats struct {
	Stability     *StabilitySummary `json:"stability,omitempty"`
	RecentMatches []MatchSummary    `json:"recent_matches,omitempty"`
}

type StabilitySummary struct {
	Score       float64 `json:"score"`
	Label       string  `json:"label"`
	Volatility  float64 `json:"volatility"`
	AvgHSRate   float64 `json:"avg_hs_rate"`
	MatchCount  int     `json:"match_count"`
	Description string  `json:"description,omitempty"`
}

type MatchSummary struct {
	HSRate     float64 `json:"hs_rate"`
	TotalKills int     `json:"total_kills"`
}

// Renders the stats block appended to the system prompt
func buildStatsContext(stats *PlayerStats) string {
	if stats == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n[PLAYER STATISTICS]\n")

	if s := stats.Stability; s != nil {
		fmt.Fprintf(&b, "- Stability Score: %.0f/100 (%s)\n", s.Score, s.Label)
		fmt.Fprintf(&b, "- Volatility: %.1f%%\n", s.Volatility)
		fmt.Fprintf(&b, "- Average Headshot Rate: %.1f%%\n", s.AvgHSRate)
		fmt.Fprintf(&b, "- Matches Analyzed: %d\n", s.MatchCount)
		if s.Description != "" {
			fmt.Fprintf(&b, "- Assessment: %s\n", s.Description)
		}
	}

	if len(stats.RecentMatches) > 0 {
		b.WriteString("\nRecent Match Performance:\n")
		matches := stats.RecentMatches
		if len(matches) > 5 {
			matches = matches[:5]
		}
		for i, m := range matches {
			fmt.Fprintf(&b, "  Match %d: HS Rate %.1f%%, %d kills\n", i+1, m.HSRate, m.TotalKills)
		}
	}

	b.WriteString("[END STATISTICS]\n")
	return b.String()
}

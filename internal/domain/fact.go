package domain

// RequestKind names one informational concern a branch can ask the resolver
// to satisfy.
type RequestKind string

const (
	KindUpcomingGames RequestKind = "upcoming-games"
	KindBroadcasts    RequestKind = "broadcasts"
	KindRecentResults RequestKind = "recent-results"
	KindLiveScores    RequestKind = "live-scores"
	KindStandings     RequestKind = "standings"
	KindPlayerNews    RequestKind = "player-news"
	KindInjuryReport  RequestKind = "injury-report"
	KindPlayerStats   RequestKind = "player-stats"
)

// FactRequest carries everything a resolver call needs: what is asked, about
// whom, and free-form parameters (timezone, lookback window, etc.).
type FactRequest struct {
	Kind     RequestKind
	Entities []string
	Params   map[string]string
}

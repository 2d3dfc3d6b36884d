// Package classify maps free-text entity names (teams, players, leagues) to
// a sport category. Pure lookup tables, no I/O; the resolver uses the result
// to decide which structured source is eligible for an entity.
package classify

import (
	"strings"

	"SportDigest/internal/domain"
)

// exactMatches maps normalized league/competition names to their category.
var exactMatches = map[string]domain.Category{
	"nba":              domain.CategoryBallSport,
	"wnba":             domain.CategoryBallSport,
	"nfl":              domain.CategoryBallSport,
	"mlb":              domain.CategoryBallSport,
	"nhl":              domain.CategoryBallSport,
	"mls":              domain.CategoryBallSport,
	"premier league":   domain.CategoryBallSport,
	"la liga":          domain.CategoryBallSport,
	"serie a":          domain.CategoryBallSport,
	"bundesliga":       domain.CategoryBallSport,
	"champions league": domain.CategoryBallSport,
	"euroleague":       domain.CategoryBallSport,

	"atp":             domain.CategoryRacketSport,
	"wta":             domain.CategoryRacketSport,
	"wimbledon":       domain.CategoryRacketSport,
	"us open":         domain.CategoryRacketSport,
	"roland garros":   domain.CategoryRacketSport,
	"australian open": domain.CategoryRacketSport,

	"f1":          domain.CategoryMotorsport,
	"formula 1":   domain.CategoryMotorsport,
	"formula one": domain.CategoryMotorsport,
	"nascar":      domain.CategoryMotorsport,
	"indycar":     domain.CategoryMotorsport,
	"motogp":      domain.CategoryMotorsport,
	"wrc":         domain.CategoryMotorsport,
}

// keywordMatches are case-insensitive substring cues checked in declaration
// order after the exact table misses.
var keywordMatches = []struct {
	keyword  string
	category domain.Category
}{
	{"basketball", domain.CategoryBallSport},
	{"football", domain.CategoryBallSport},
	{"soccer", domain.CategoryBallSport},
	{"baseball", domain.CategoryBallSport},
	{"hockey", domain.CategoryBallSport},
	{"volleyball", domain.CategoryBallSport},
	{"lakers", domain.CategoryBallSport},
	{"warriors", domain.CategoryBallSport},
	{"celtics", domain.CategoryBallSport},
	{"yankees", domain.CategoryBallSport},
	{"united", domain.CategoryBallSport},
	{"city fc", domain.CategoryBallSport},

	{"tennis", domain.CategoryRacketSport},
	{"badminton", domain.CategoryRacketSport},
	{"squash", domain.CategoryRacketSport},
	{"table tennis", domain.CategoryRacketSport},

	{"racing", domain.CategoryMotorsport},
	{"grand prix", domain.CategoryMotorsport},
	{"rally", domain.CategoryMotorsport},
	{"ferrari", domain.CategoryMotorsport},
	{"red bull racing", domain.CategoryMotorsport},
	{"mclaren", domain.CategoryMotorsport},
}

// Classify returns the category for an entity name. Total and stable: every
// input maps to exactly one category, CategoryGeneric when nothing matches.
func Classify(name string) domain.Category {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return domain.CategoryGeneric
	}

	if cat, ok := exactMatches[normalized]; ok {
		return cat
	}

	for _, kw := range keywordMatches {
		if strings.Contains(normalized, kw.keyword) {
			return kw.category
		}
	}

	return domain.CategoryGeneric
}

// Partition groups entities by category, preserving input order within each
// group. Empty names are dropped.
func Partition(entities []string) map[domain.Category][]string {
	groups := make(map[domain.Category][]string)
	for _, entity := range entities {
		if strings.TrimSpace(entity) == "" {
			continue
		}
		cat := Classify(entity)
		groups[cat] = append(groups[cat], entity)
	}
	return groups
}

// Package resolve implements the tiered resolution policy: for one request,
// try the structured source, then web search, then a generative fallback, and
// report the first non-empty well-formed result with its provenance. Tier
// failures are swallowed and logged; the resolver never returns an error.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"SportDigest/internal/classify"
	"SportDigest/internal/domain"
	"SportDigest/internal/ports"
)

// tierRank orders provenance tags by fallback priority for picking the
// provenance of a multi-group result.
var tierRank = map[domain.Provenance]int{
	domain.ProvenanceStructured: 0,
	domain.ProvenanceWebSearch:  1,
	domain.ProvenanceGenerative: 2,
}

// ResolverDeps wires the tier adapters into the resolver.
type ResolverDeps struct {
	Registry *Registry
	Search   ports.SearchClient
	Chat     ports.ChatClient
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Resolver executes the tiered resolution policy.
type Resolver struct {
	registry *Registry
	search   ports.SearchClient
	chat     ports.ChatClient
	timeout  time.Duration
	logger   *slog.Logger
}

var _ ports.Resolver = (*Resolver)(nil)

// NewResolver constructs a resolver; a nil registry disables the structured
// tier, a nil search client disables web search.
func NewResolver(deps ResolverDeps) *Resolver {
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Resolver{
		registry: deps.Registry,
		search:   deps.Search,
		chat:     deps.Chat,
		timeout:  timeout,
		logger:   deps.Logger,
	}
}

// Resolve partitions entities by category, resolves each group through the
// tier chain independently, and joins the group results. The returned fact
// may be empty only when every tier is down for every group.
func (r *Resolver) Resolve(ctx context.Context, req domain.FactRequest) (domain.ResolvedFact, []domain.Invocation) {
	groups := classify.Partition(req.Entities)
	if len(groups) == 0 {
		groups = map[domain.Category][]string{domain.CategoryGeneric: nil}
	}

	categories := make([]domain.Category, 0, len(groups))
	for cat := range groups {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var (
		parts       []string
		provenance  domain.Provenance
		invocations []domain.Invocation
	)
	for _, cat := range categories {
		text, tier, invs := r.resolveGroup(ctx, req, cat, groups[cat])
		invocations = append(invocations, invs...)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		if provenance == "" || tierRank[tier] < tierRank[provenance] {
			provenance = tier
		}
	}

	return domain.ResolvedFact{
		Text:       strings.Join(parts, " | "),
		Provenance: provenance,
	}, invocations
}

// resolveGroup runs the strictly-ordered tier chain for one category group.
func (r *Resolver) resolveGroup(ctx context.Context, req domain.FactRequest, cat domain.Category, entities []string) (string, domain.Provenance, []domain.Invocation) {
	var invocations []domain.Invocation

	if r.registry != nil {
		if source, ok := r.registry.Lookup(cat); ok {
			text, err := r.attemptStructured(ctx, source, req, entities)
			invocations = append(invocations, domain.Invocation{
				Source:   source.Name(),
				Category: cat,
				Tier:     domain.ProvenanceStructured,
				OK:       err == nil && text != "",
			})
			if err != nil {
				r.debug("structured tier failed", "kind", req.Kind, "category", cat, "error", err)
			} else if text != "" {
				return text, domain.ProvenanceStructured, invocations
			}
		}
	}

	if r.search != nil {
		text, err := r.attemptSearch(ctx, req, entities)
		invocations = append(invocations, domain.Invocation{
			Source:   "websearch",
			Category: cat,
			Tier:     domain.ProvenanceWebSearch,
			OK:       err == nil && text != "",
		})
		if err != nil {
			r.debug("search tier failed", "kind", req.Kind, "category", cat, "error", err)
		} else if text != "" {
			return text, domain.ProvenanceWebSearch, invocations
		}
	}

	text, err := r.attemptGenerative(ctx, req, entities)
	invocations = append(invocations, domain.Invocation{
		Source:   "chatgpt",
		Category: cat,
		Tier:     domain.ProvenanceGenerative,
		OK:       err == nil && text != "",
	})
	if err != nil {
		r.debug("generative tier failed", "kind", req.Kind, "category", cat, "error", err)
		return "", domain.ProvenanceGenerative, invocations
	}

	return text, domain.ProvenanceGenerative, invocations
}

func (r *Resolver) attemptStructured(ctx context.Context, source ports.StructuredSource, req domain.FactRequest, entities []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := source.Query(ctx, req, entities)
	if err != nil {
		return "", err
	}
	return Compact(text, FactLimit), nil
}

func (r *Resolver) attemptSearch(ctx context.Context, req domain.FactRequest, entities []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	snippets, err := r.search.Search(ctx, searchQuery(req, entities))
	if err != nil {
		return "", err
	}
	return Compact(strings.Join(snippets, "; "), FactLimit), nil
}

func (r *Resolver) attemptGenerative(ctx context.Context, req domain.FactRequest, entities []string) (string, error) {
	if r.chat == nil {
		return "", fmt.Errorf("chat client not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Respond with %d characters or less.\n%s", FactLimit, instructionFor(req, entities))
	out, err := r.chat.Complete(ctx, "", prompt)
	if err != nil {
		return "", err
	}
	return Compact(out, FactLimit), nil
}

// instructionFor formulates the generative-tier instruction from the request.
func instructionFor(req domain.FactRequest, entities []string) string {
	subject := strings.Join(entities, ", ")
	if subject == "" {
		subject = "the user's followed sports"
	}

	var instruction string
	switch req.Kind {
	case domain.KindUpcomingGames:
		date := paramOr(req, "date", "today")
		instruction = fmt.Sprintf("List upcoming games for %s on %s. Include opponent, time, and TV channel.", subject, date)
	case domain.KindBroadcasts:
		instruction = fmt.Sprintf("Provide TV channel or streaming service information for games involving %s.", subject)
	case domain.KindRecentResults:
		lookback := paramOr(req, "lookback_days", "1")
		instruction = fmt.Sprintf("Provide scores and brief highlights for %s games in the last %s day(s).", subject, lookback)
	case domain.KindLiveScores:
		instruction = fmt.Sprintf("List current in-progress games in %s with live scores.", subject)
	case domain.KindStandings:
		instruction = fmt.Sprintf("Provide current standings/rankings for %s.", subject)
	case domain.KindPlayerNews:
		instruction = fmt.Sprintf("Provide latest news and updates about %s.", subject)
	case domain.KindInjuryReport:
		instruction = fmt.Sprintf("Provide injury report and return-to-play timelines for %s.", subject)
	case domain.KindPlayerStats:
		instruction = fmt.Sprintf("Provide recent performance stats (last 5 games) for %s.", subject)
	default:
		instruction = fmt.Sprintf("Provide a short sports update about %s.", subject)
	}

	if tz := req.Params["timezone"]; tz != "" {
		instruction += fmt.Sprintf(" Times in %s timezone.", tz)
	}

	return instruction
}

// searchQuery builds the web-search query for a request.
func searchQuery(req domain.FactRequest, entities []string) string {
	subject := strings.Join(entities, " ")

	switch req.Kind {
	case domain.KindUpcomingGames, domain.KindBroadcasts:
		return subject + " upcoming games schedule tv"
	case domain.KindRecentResults, domain.KindLiveScores:
		return subject + " latest score result"
	case domain.KindStandings:
		return subject + " current standings"
	case domain.KindPlayerNews:
		return subject + " latest news"
	case domain.KindInjuryReport:
		return subject + " injury report"
	case domain.KindPlayerStats:
		return subject + " recent stats"
	default:
		return subject + " sports news"
	}
}

func paramOr(req domain.FactRequest, key, fallback string) string {
	if v := req.Params[key]; v != "" {
		return v
	}
	return fallback
}

func (r *Resolver) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

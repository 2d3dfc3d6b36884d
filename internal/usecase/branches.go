package usecase

import (
	"context"
	"strings"

	"SportDigest/internal/domain"
)

const (
	branchSchedule = "schedule"
	branchResults  = "results"
	branchPlayer   = "player"
)

// branchPlaceholders fill a section when every resolver call inside the
// branch came back empty or the branch timed out.
var branchPlaceholders = map[string]string{
	branchSchedule: "No schedule information available right now.",
	branchResults:  "No recent results or standings available right now.",
	branchPlayer:   "No player news available right now.",
}

// branchResult carries one gathering branch's output to the orchestrator.
type branchResult struct {
	name        string
	output      string
	invocations []domain.Invocation
}

// gatherSchedule collects upcoming fixtures and broadcast info for the
// snapshot's teams.
func (o *Orchestrator) gatherSchedule(ctx context.Context, snap domain.PipelineSnapshot) branchResult {
	params := map[string]string{"timezone": snap.Timezone}

	res := branchResult{name: branchSchedule}
	res.collect(o.resolve(ctx, domain.FactRequest{Kind: domain.KindUpcomingGames, Entities: snap.Teams, Params: params}))
	res.collect(o.resolve(ctx, domain.FactRequest{Kind: domain.KindBroadcasts, Entities: snap.Teams, Params: params}))
	res.finish()
	return res
}

// gatherResults collects recent scores for the teams and standings for the
// followed leagues.
func (o *Orchestrator) gatherResults(ctx context.Context, snap domain.PipelineSnapshot) branchResult {
	res := branchResult{name: branchResults}
	res.collect(o.resolve(ctx, domain.FactRequest{Kind: domain.KindRecentResults, Entities: snap.Teams, Params: map[string]string{"lookback_days": "1"}}))
	res.collect(o.resolve(ctx, domain.FactRequest{Kind: domain.KindStandings, Entities: snap.Leagues}))
	res.finish()
	return res
}

// gatherPlayer collects player news and stats plus team injury reports. The
// player-specific calls are skipped when the user follows no players.
func (o *Orchestrator) gatherPlayer(ctx context.Context, snap domain.PipelineSnapshot) branchResult {
	res := branchResult{name: branchPlayer}
	if len(snap.Players) > 0 {
		res.collect(o.resolve(ctx, domain.FactRequest{Kind: domain.KindPlayerNews, Entities: snap.Players}))
	}
	res.collect(o.resolve(ctx, domain.FactRequest{Kind: domain.KindInjuryReport, Entities: snap.Teams}))
	if len(snap.Players) > 0 {
		res.collect(o.resolve(ctx, domain.FactRequest{Kind: domain.KindPlayerStats, Entities: snap.Players}))
	}
	res.finish()
	return res
}

func (o *Orchestrator) resolve(ctx context.Context, req domain.FactRequest) (domain.ResolvedFact, []domain.Invocation) {
	return o.resolver.Resolve(ctx, req)
}

// collect folds one resolver call into the branch output.
func (b *branchResult) collect(fact domain.ResolvedFact, invocations []domain.Invocation) {
	b.invocations = append(b.invocations, invocations...)
	if fact.Text == "" {
		return
	}
	if b.output != "" {
		b.output += " "
	}
	b.output += fact.Text
}

// finish applies the neutral placeholder when the branch gathered nothing.
func (b *branchResult) finish() {
	if strings.TrimSpace(b.output) == "" {
		b.output = branchPlaceholders[b.name]
	}
}

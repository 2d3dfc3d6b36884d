package usecase

import (
	"context"
	"log/slog"
	"time"

	"SportDigest/internal/domain"
	"SportDigest/internal/ports"
)

// OrchestratorDeps wires the resolver and synthesizer into the run loop.
type OrchestratorDeps struct {
	Resolver      ports.Resolver
	Synthesizer   *Synthesizer
	BranchTimeout time.Duration
	Logger        *slog.Logger
}

// Orchestrator runs the three gathering branches concurrently over one
// immutable snapshot, merges their outputs, and synthesizes the digest.
type Orchestrator struct {
	resolver      ports.Resolver
	synthesizer   *Synthesizer
	branchTimeout time.Duration
	logger        *slog.Logger
}

// NewOrchestrator constructs the orchestration component.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	timeout := deps.BranchTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Orchestrator{
		resolver:      deps.Resolver,
		synthesizer:   deps.Synthesizer,
		branchTimeout: timeout,
		logger:        deps.Logger,
	}
}

type branchFunc func(context.Context, domain.PipelineSnapshot) branchResult

// Run executes one orchestration: spawn the three branches, join all of
// them, merge by disjoint-field write, synthesize. A branch timing out or
// panicking degrades to its placeholder; siblings are unaffected, and the
// run itself never fails.
func (o *Orchestrator) Run(ctx context.Context, snap domain.PipelineSnapshot) domain.FinalDigest {
	branches := []struct {
		name string
		run  branchFunc
	}{
		{branchSchedule, o.gatherSchedule},
		{branchResults, o.gatherResults},
		{branchPlayer, o.gatherPlayer},
	}

	results := make(chan branchResult, len(branches))
	for _, b := range branches {
		go o.runBranch(ctx, b.name, b.run, snap, results)
	}

	var state domain.PipelineState
	for range branches {
		res := <-results
		switch res.name {
		case branchSchedule:
			state.Schedule = res.output
		case branchResults:
			state.Results = res.output
		case branchPlayer:
			state.PlayerNews = res.output
		}
		state.Invocations = append(state.Invocations, res.invocations...)
	}

	return domain.FinalDigest{
		Text:        o.synthesizer.Synthesize(ctx, snap, state),
		GeneratedAt: time.Now(),
		Invocations: state.Invocations,
	}
}

// runBranch executes one branch under its own deadline and always delivers a
// result, degrading to the placeholder on timeout or panic.
func (o *Orchestrator) runBranch(ctx context.Context, name string, run branchFunc, snap domain.PipelineSnapshot, results chan<- branchResult) {
	bctx, cancel := context.WithTimeout(ctx, o.branchTimeout)
	defer cancel()

	done := make(chan branchResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				o.warn("branch panicked", "branch", name, "panic", rec)
				done <- branchResult{name: name, output: branchPlaceholders[name]}
			}
		}()
		done <- run(bctx, snap)
	}()

	select {
	case res := <-done:
		results <- res
	case <-bctx.Done():
		o.warn("branch timed out", "branch", name)
		results <- branchResult{name: name, output: branchPlaceholders[name]}
	}
}

func (o *Orchestrator) warn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}

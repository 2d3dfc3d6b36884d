package ports

import (
	"context"
	"time"

	"SportDigest/internal/domain"
)

// ChatClient asks a language model for text given a system and a user
// instruction. Used by the generative resolver tier and the synthesizer.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// SearchClient returns ranked result snippets for a free-text query.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// StructuredSource answers category-scoped queries against a structured API.
// Returning an empty string with nil error means "no data for this request".
type StructuredSource interface {
	Name() string
	Query(ctx context.Context, req domain.FactRequest, entities []string) (string, error)
}

// Resolver executes the tiered resolution policy for one request. It never
// fails: the worst case is generative-quality content.
type Resolver interface {
	Resolve(ctx context.Context, req domain.FactRequest) (domain.ResolvedFact, []domain.Invocation)
}

// ProfileStore is the durable, concurrency-safe persistence gateway for user
// profiles and bounded digest history.
type ProfileStore interface {
	Profile(ctx context.Context, userID string) (domain.UserProfile, bool, error)
	UpsertProfile(ctx context.Context, profile domain.UserProfile) error
	DeleteProfile(ctx context.Context, userID string) (bool, error)
	AppendHistory(ctx context.Context, userID string, entry domain.DigestEntry, cap int) error
	History(ctx context.Context, userID string, limit int) ([]domain.DigestEntry, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

// DigestArchive mirrors generated digests into long-term storage for audit.
type DigestArchive interface {
	SaveDigest(ctx context.Context, userID, digest string, generatedAt time.Time) error
}

// JobRegistry owns the recurring per-user triggers: at most one active job
// per user id, replace-on-upsert.
type JobRegistry interface {
	Upsert(userID string, hour, minute int, timezone string) error
	Remove(userID string) bool
	Jobs() []domain.ScheduledJob
	Stop()
}

package domain

import "time"

// Category groups a followed entity (team, player, league) by the kind of
// sport it belongs to. The classifier assigns one; the resolver uses it to
// pick which structured source is eligible.
type Category string

const (
	CategoryBallSport   Category = "ball-sport"
	CategoryRacketSport Category = "racket-sport"
	CategoryMotorsport  Category = "motorsport"
	CategoryGeneric     Category = "generic"
)

// Provenance tags which resolver tier actually produced a fact.
type Provenance string

const (
	ProvenanceStructured Provenance = "structured-api"
	ProvenanceWebSearch  Provenance = "web-search"
	ProvenanceGenerative Provenance = "generative"
)

// UserProfile is the persisted record for one user: followed entities,
// delivery preferences, and bounded digest history.
type UserProfile struct {
	UserID       string        `json:"user_id"`
	Teams        []string      `json:"teams"`
	Players      []string      `json:"players"`
	Leagues      []string      `json:"leagues"`
	DeliveryTime string        `json:"delivery_time"`
	Timezone     string        `json:"timezone"`
	History      []DigestEntry `json:"digest_history,omitempty"`
}

// DigestEntry is one generated digest kept in a user's history.
type DigestEntry struct {
	Digest    string    `json:"digest"`
	Timestamp time.Time `json:"timestamp"`
}

// PipelineSnapshot is the immutable input to one orchestration run. Branches
// read from it concurrently; nothing mutates it after creation.
type PipelineSnapshot struct {
	UserID   string
	Teams    []string
	Players  []string
	Leagues  []string
	Timezone string
}

// Snapshot copies the profile's preference fields into a PipelineSnapshot.
func Snapshot(p UserProfile) PipelineSnapshot {
	return PipelineSnapshot{
		UserID:   p.UserID,
		Teams:    append([]string(nil), p.Teams...),
		Players:  append([]string(nil), p.Players...),
		Leagues:  append([]string(nil), p.Leagues...),
		Timezone: p.Timezone,
	}
}

// ResolvedFact is the output of one tiered resolution: a compact text payload
// tagged with the tier that produced it.
type ResolvedFact struct {
	Text       string
	Provenance Provenance
}

// Invocation records one resolver attempt against one source.
type Invocation struct {
	Source   string     `json:"source"`
	Category Category   `json:"category"`
	Tier     Provenance `json:"tier"`
	OK       bool       `json:"ok"`
}

// PipelineState accumulates one run's branch outputs. Each branch owns
// exactly one field; logs are concatenated after all branches join.
type PipelineState struct {
	Schedule    string
	Results     string
	PlayerNews  string
	Invocations []Invocation
}

// FinalDigest is the terminal output of one orchestration run.
type FinalDigest struct {
	Text        string
	GeneratedAt time.Time
	Invocations []Invocation
}

// ScheduledJob describes one active recurring trigger.
type ScheduledJob struct {
	UserID   string    `json:"user_id"`
	NextFire time.Time `json:"next_fire"`
}

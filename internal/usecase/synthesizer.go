package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"SportDigest/internal/domain"
	"SportDigest/internal/ports"
	"SportDigest/internal/resolve"
)

// sectionLimit bounds the material handed to the language model per section.
const sectionLimit = 400

// Synthesizer combines whatever branch outputs are present into one
// formatted document. A missing section is omitted; a single missing section
// never fails the digest.
type Synthesizer struct {
	chat   ports.ChatClient
	logger *slog.Logger
}

// NewSynthesizer builds a synthesizer; a nil chat client yields the plain
// deterministic assembly.
func NewSynthesizer(chat ports.ChatClient, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{chat: chat, logger: logger}
}

// Synthesize renders the digest text from the merged pipeline state. Each
// field is treated independently; the language model only rephrases material
// already gathered, and any model failure falls back to the plain assembly.
func (s *Synthesizer) Synthesize(ctx context.Context, snap domain.PipelineSnapshot, state domain.PipelineState) string {
	plain := plainDigest(state)

	if s.chat == nil || plain == "" {
		return plain
	}

	out, err := s.chat.Complete(ctx, "", composePrompt(snap, state))
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil && s.logger != nil {
			s.logger.Warn("digest synthesis fell back to plain assembly", "error", err)
		}
		return plain
	}

	return strings.TrimSpace(out)
}

// plainDigest emits one labeled section per present field, in the fixed
// digest order.
func plainDigest(state domain.PipelineState) string {
	var b strings.Builder

	writeSection := func(label, content string) {
		if strings.TrimSpace(content) == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(content))
	}

	writeSection("YESTERDAY'S RESULTS", state.Results)
	writeSection("TODAY'S SCHEDULE", state.Schedule)
	writeSection("PLAYER NEWS", state.PlayerNews)

	return b.String()
}

func composePrompt(snap domain.PipelineSnapshot, state domain.PipelineState) string {
	players := strings.Join(snap.Players, ", ")
	if players == "" {
		players = "none"
	}

	return fmt.Sprintf(`Create a daily sports digest for a fan following:
Teams: %s
Players: %s

Information gathered:
Schedule: %s
Scores: %s
Player News: %s

Format the digest with clear sections:
1. YESTERDAY'S RESULTS
2. TODAY'S SCHEDULE
3. PLAYER NEWS

Use emojis and make it engaging but concise.`,
		strings.Join(snap.Teams, ", "),
		players,
		resolve.Compact(state.Schedule, sectionLimit),
		resolve.Compact(state.Results, sectionLimit),
		resolve.Compact(state.PlayerNews, sectionLimit),
	)
}

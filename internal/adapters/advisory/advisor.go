// Package advisory turns field snapshots into operator-facing advisory text.
// The generator boundary is the only place the system talks to an external
// model; everything that can go wrong there degrades to a fixed fallback.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"injectcore/internal/blob"
	"injectcore/internal/core"
)

// FallbackText is returned whenever the generator cannot produce a summary.
// Callers can rely on Advise never failing.
const FallbackText = "Advisory unavailable. Review tank levels and active associations manually."

// DefaultTimeout bounds a single generator call.
const DefaultTimeout = 15 * time.Second

// Generator produces a textual summary for a field snapshot.
type Generator interface {
	Summarize(ctx context.Context, snapshot core.FieldSnapshot) (string, error)
}

// Advisor wraps a Generator with a timeout, a fallback, and best-effort
// archiving of successful reports to the blob store.
type Advisor struct {
	generator Generator
	archive   blob.Store
	timeout   time.Duration
	logger    *slog.Logger
	nowFn     func() time.Time
}

// NewAdvisor builds an advisor. archive may be nil to disable report
// archiving; logger may be nil for the default slog logger.
func NewAdvisor(generator Generator, archive blob.Store, timeout time.Duration, logger *slog.Logger) *Advisor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{generator: generator, archive: archive, timeout: timeout, logger: logger, nowFn: time.Now}
}

type report struct {
	ID          string             `json:"id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Snapshot    core.FieldSnapshot `json:"snapshot"`
	Text        string             `json:"text"`
}

// Advise summarizes the snapshot. Every failure mode (missing generator,
// timeout, transport or auth error, empty response) resolves to FallbackText.
func (a *Advisor) Advise(ctx context.Context, snapshot core.FieldSnapshot) string {
	if a.generator == nil {
		return FallbackText
	}
	genCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	text, err := a.generator.Summarize(genCtx, snapshot)
	if err != nil {
		a.logger.WarnContext(ctx, "advisory generation failed", "error", err)
		return FallbackText
	}
	if text == "" {
		a.logger.WarnContext(ctx, "advisory generator returned empty text")
		return FallbackText
	}
	a.archiveReport(ctx, snapshot, text)
	return text
}

// archiveReport persists the advisory as a JSON blob. Failures are logged and
// otherwise ignored; the advisory text already went to the caller.
func (a *Advisor) archiveReport(ctx context.Context, snapshot core.FieldSnapshot, text string) {
	if a.archive == nil {
		return
	}
	r := report{ID: uuid.NewString(), GeneratedAt: a.nowFn().UTC(), Snapshot: snapshot, Text: text}
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		a.logger.WarnContext(ctx, "advisory report encode failed", "error", err)
		return
	}
	key := "advisory/" + r.ID + ".json"
	if _, err := a.archive.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{ContentType: "application/json"}); err != nil {
		a.logger.WarnContext(ctx, "advisory report archive failed", "key", key, "error", err)
	}
}

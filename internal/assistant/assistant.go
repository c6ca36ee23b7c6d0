// Package assistant wires the resolution, classification and data layers
// into the single operation the presentation layer consumes.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/fpl-assistant/internal/datacache"
	"github.com/xaenox/fpl-assistant/internal/directory"
	"github.com/xaenox/fpl-assistant/internal/models"
	"github.com/xaenox/fpl-assistant/internal/resolver"
	"github.com/xaenox/fpl-assistant/internal/router"
	"github.com/xaenox/fpl-assistant/internal/session"
)

// Response is the outcome of one handled query.
type Response struct {
	Intent             models.Intent      `json:"intent"`
	Confidence         float64            `json:"confidence"`
	Entities           []models.EntityRef `json:"entities"`
	NeedsClarification bool               `json:"needs_clarification"`
	Answer             string             `json:"answer"`
}

type Assistant struct {
	resolver  *resolver.Resolver
	router    *router.Router
	directory *directory.Directory
	cache     *datacache.Store
	sessions  session.Store
	generator Generator
	logger    *zap.Logger
}

func New(
	res *resolver.Resolver,
	rt *router.Router,
	dir *directory.Directory,
	cache *datacache.Store,
	sessions session.Store,
	generator Generator,
	logger *zap.Logger,
) *Assistant {
	return &Assistant{
		resolver:  res,
		router:    rt,
		directory: dir,
		cache:     cache,
		sessions:  sessions,
		generator: generator,
		logger:    logger,
	}
}

// Handle runs one query through the full pipeline: reference resolution,
// classification, data retrieval and response composition, then records the
// turn. The directory snapshot is taken once up front so a concurrent
// refresh cannot change entities mid-request.
func (a *Assistant) Handle(ctx context.Context, sessionID, rawText string) (*Response, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return &Response{
			Intent:             models.IntentConversational,
			NeedsClarification: true,
			Answer:             "Ask me something about Fantasy Premier League!",
		}, nil
	}

	snap := a.directory.Snapshot()

	res, err := a.resolver.Resolve(ctx, snap, rawText, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reference resolution failed: %w", err)
	}

	qc := router.Context{
		Entities:           res.Entities,
		AnaphoraResolved:   res.HasAnaphora() && !res.NeedsContext,
		AnaphoraUnresolved: res.NeedsContext,
	}
	cls := a.router.Classify(res.NormalizedText, qc)

	a.logger.Info("query classified",
		zap.String("session_id", sessionID),
		zap.String("intent", cls.Intent.String()),
		zap.Float64("confidence", cls.Confidence),
		zap.Int("entities", len(res.Entities)),
		zap.Bool("needs_context", res.NeedsContext))

	resp := &Response{
		Intent:     cls.Intent,
		Confidence: cls.Confidence,
		Entities:   res.Entities,
	}

	switch {
	case len(res.Ambiguous) > 0:
		resp.NeedsClarification = true
		resp.Answer = clarifyAmbiguity(res.Ambiguous)
	case res.NeedsContext:
		resp.NeedsClarification = true
		resp.Answer = "I'm not sure who you mean. Could you name the player or team you're asking about?"
	default:
		answer, err := a.compose(ctx, sessionID, res, cls)
		switch {
		case errors.Is(err, datacache.ErrDataUnavailable):
			resp.Answer = "FPL data is temporarily unavailable, so I can't answer that accurately right now. Please try again in a few minutes."
		case err != nil:
			return nil, err
		default:
			resp.Answer = answer
		}
	}

	turn := models.Turn{
		ID:        uuid.New().String(),
		UserText:  rawText,
		Entities:  res.Entities,
		Intent:    cls.Intent,
		CreatedAt: time.Now(),
	}
	if err := a.sessions.Append(ctx, sessionID, turn); err != nil {
		// The answer is already composed; a memory write failure only
		// degrades follow-up resolution.
		a.logger.Warn("failed to record turn",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	return resp, nil
}

func (a *Assistant) compose(ctx context.Context, sessionID string, res resolver.Resolution, cls models.ClassificationResult) (string, error) {
	if cls.Intent == models.IntentConversational {
		return conversationalReply(res.NormalizedText), nil
	}

	contextData, err := a.buildContext(ctx, res.NormalizedText, res.Entities, cls.Intent)
	if err != nil {
		return "", err
	}

	snippet, err := a.sessions.History(ctx, sessionID)
	if err != nil {
		a.logger.Warn("failed to load conversation snippet", zap.Error(err))
		snippet = nil
	}

	return a.generator.Generate(ctx, GenerationRequest{
		Question:    res.NormalizedText,
		Intent:      cls.Intent,
		Entities:    res.Entities,
		ContextData: contextData,
		Snippet:     snippet,
	})
}

func clarifyAmbiguity(candidates []models.EntityRef) string {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.DisplayName)
	}
	return fmt.Sprintf("I found more than one match: %s. Which one do you mean?",
		strings.Join(names, ", "))
}

// conversationalReply answers small talk directly, without a generation
// round-trip.
func conversationalReply(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))

	switch {
	case strings.Contains(lower, "how are you") || strings.Contains(lower, "how're you"):
		return "I'm doing great, thanks for asking! Ready to help you dominate your mini-league. What FPL questions do you have?"
	case hasAnyPrefix(lower, "hi", "hello", "hey", "greetings", "good morning", "good afternoon", "good evening"):
		return "Hello! I'm your FPL assistant. I can help with player analysis, fixtures, transfers and strategy. What would you like to know?"
	case hasAnyPrefix(lower, "thanks", "thank you", "thx"):
		return "You're welcome! Feel free to ask me anything about Fantasy Premier League."
	case hasAnyPrefix(lower, "bye", "goodbye", "see ya", "see you"):
		return "Goodbye! Good luck with your team - come back anytime for more advice."
	case hasAnyPrefix(lower, "what's up", "whats up", "sup"):
		return "Just here helping FPL managers like you! Player picks, transfers or strategy - what can I help with?"
	default:
		return "Got it! Is there anything specific about Fantasy Premier League I can help you with?"
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

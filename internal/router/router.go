// Package router assigns each query to one of the five handling intents.
// Classification is a pure function of (text, context, config): an ordered
// list of intent matchers scores the query, per-intent thresholds gate
// acceptance, and ties break toward the higher-priority intent. There is no
// error path; a query nothing qualifies for falls back to the analysis
// intent with its computed score.
package router

import (
	"strings"

	"github.com/xaenox/fpl-assistant/internal/models"
)

// Context carries the resolution signals the matchers score against.
type Context struct {
	Entities []models.EntityRef
	// AnaphoraResolved is true when a marker was found and an antecedent
	// substituted into the text.
	AnaphoraResolved bool
	// AnaphoraUnresolved is true when a marker was found but no antecedent
	// was available.
	AnaphoraUnresolved bool
}

func (c Context) people() int {
	n := 0
	for _, e := range c.Entities {
		if e.Kind == models.KindPerson {
			n++
		}
	}
	return n
}

func (c Context) organizations() int {
	n := 0
	for _, e := range c.Entities {
		if e.Kind == models.KindOrganization {
			n++
		}
	}
	return n
}

// Config holds the per-intent acceptance thresholds. It is passed in rather
// than read from package state so threshold tuning is testable in isolation.
type Config struct {
	Thresholds map[models.Intent]float64
}

func DefaultConfig() Config {
	return Config{
		Thresholds: map[models.Intent]float64{
			models.IntentConversational: 90,
			models.IntentContextual:     85,
			models.IntentFixtures:       75,
			models.IntentPlayerData:     70,
			models.IntentAnalysis:       65,
		},
	}
}

// intentMatcher scores one intent. Implementations are stateless.
type intentMatcher interface {
	intent() models.Intent
	// score returns a confidence in [0,100] and the signals that fired.
	score(text string, qc Context) (float64, []string)
}

type Router struct {
	cfg Config
	// Ordered highest priority first; the order is the tie-break.
	matchers []intentMatcher
}

func New(cfg Config) *Router {
	byIntent := map[models.Intent]intentMatcher{
		models.IntentAnalysis:       analysisMatcher{},
		models.IntentContextual:     contextualMatcher{},
		models.IntentFixtures:       fixturesMatcher{},
		models.IntentPlayerData:     playerDataMatcher{},
		models.IntentConversational: conversationalMatcher{},
	}

	matchers := make([]intentMatcher, 0, len(byIntent))
	for _, intent := range models.Intents() {
		matchers = append(matchers, byIntent[intent])
	}

	return &Router{cfg: cfg, matchers: matchers}
}

// Classify never fails; absence of a qualifying intent is the normal
// fallback outcome, not an error.
func (r *Router) Classify(text string, qc Context) models.ClassificationResult {
	normalized := strings.ToLower(strings.TrimSpace(text))

	var (
		best       models.ClassificationResult
		qualified  bool
		maxConf    float64
		maxSignals []string
	)

	for _, m := range r.matchers {
		conf, signals := m.score(normalized, qc)
		if conf > maxConf {
			maxConf = conf
			maxSignals = signals
		}
		if conf < r.threshold(m.intent()) {
			continue
		}
		// Strict comparison keeps the earlier (higher priority) intent on
		// a tie.
		if !qualified || conf > best.Confidence {
			best = models.ClassificationResult{
				Intent:     m.intent(),
				Confidence: conf,
				Signals:    signals,
			}
			qualified = true
		}
	}

	if qualified {
		return best
	}

	// Fallback carries the best computed score so downstream logging has a
	// real number to analyze, not zero.
	return models.ClassificationResult{
		Intent:     models.IntentAnalysis,
		Confidence: maxConf,
		Signals:    maxSignals,
	}
}

func (r *Router) threshold(i models.Intent) float64 {
	if t, ok := r.cfg.Thresholds[i]; ok {
		return t
	}
	return DefaultConfig().Thresholds[i]
}

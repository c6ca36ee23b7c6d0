package models

import "time"

// Kind categorizes a directory entity.
type Kind string

const (
	KindPerson       Kind = "person"
	KindOrganization Kind = "organization"
	KindOther        Kind = "other"
)

// EntityRef is a resolved reference to a directory entity. The canonical ID
// is valid against the directory snapshot that produced it; historic turns
// keep their reference even if a later refresh drops the entity.
type EntityRef struct {
	CanonicalID string `json:"canonical_id"`
	DisplayName string `json:"display_name"`
	Kind        Kind   `json:"kind"`
}

// Turn is one completed exchange in a session. Immutable once appended.
// Entities is ordered most-recent-last within the turn.
type Turn struct {
	ID        string      `json:"id"`
	UserText  string      `json:"user_text"`
	Entities  []EntityRef `json:"entities"`
	Intent    Intent      `json:"intent"`
	CreatedAt time.Time   `json:"created_at"`
}

// Intent is the category of handling a query requires.
type Intent string

const (
	// IntentConversational covers greetings and small talk.
	IntentConversational Intent = "conversational"
	// IntentContextual covers queries that lean on prior turns (pronouns,
	// "that player", ...).
	IntentContextual Intent = "contextual"
	// IntentFixtures covers schedule questions (who is X playing, next N games).
	IntentFixtures Intent = "fixtures"
	// IntentPlayerData covers direct stat lookups (price of X, points of Y).
	IntentPlayerData Intent = "player_data"
	// IntentAnalysis is the broad strategy/comparison intent and the
	// designated fallback when nothing else qualifies.
	IntentAnalysis Intent = "analysis"
)

func (i Intent) String() string { return string(i) }

// Intents lists every intent in router priority order, highest first.
// Analysis is most specific and most expensive; conversational sits last so
// small-talk patterns never short-circuit a data query on a tie.
func Intents() []Intent {
	return []Intent{
		IntentAnalysis,
		IntentContextual,
		IntentFixtures,
		IntentPlayerData,
		IntentConversational,
	}
}

// ClassificationResult is the router output for a single query. Confidence
// is on a 0-100 scale and is always populated, including on the fallback
// path, so downstream logging always has a real score.
type ClassificationResult struct {
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Signals    []string `json:"signals"`
}

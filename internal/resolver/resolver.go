// Package resolver detects anaphoric references ("he", "that player", "the
// other one") in a query and substitutes the most recently mentioned
// matching entity from session memory. Explicit mentions in the query always
// win over pronoun resolution.
package resolver

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/fpl-assistant/internal/directory"
	"github.com/xaenox/fpl-assistant/internal/matcher"
	"github.com/xaenox/fpl-assistant/internal/models"
	"github.com/xaenox/fpl-assistant/internal/session"
)

// recentLookback is how many prior entities are consulted for a pronoun.
const recentLookback = 3

// Resolution is the resolver output. NeedsContext is true only when a marker
// was found but no antecedent exists; the caller should ask a clarifying
// question instead of guessing.
type Resolution struct {
	NormalizedText string
	Entities       []models.EntityRef
	NeedsContext   bool
	// Ambiguous holds the near-tied candidates of an ambiguous mention, so
	// the caller can ask which one was meant.
	Ambiguous []models.EntityRef

	anaphora bool
}

// HasAnaphora reports whether the original text contained a marker at all,
// resolved or not.
func (r Resolution) HasAnaphora() bool { return r.anaphora }

type marker struct {
	pattern *regexp.Regexp
	kind    models.Kind // preferred antecedent kind, "" for any
}

var markers = []marker{
	{regexp.MustCompile(`(?i)\b(he|him|his|she|her|hers)\b`), models.KindPerson},
	{regexp.MustCompile(`(?i)\b(they|them|their|theirs)\b`), ""},
	{regexp.MustCompile(`(?i)\b(that|this|the same)\s+(player|guy|lad)\b`), models.KindPerson},
	{regexp.MustCompile(`(?i)\b(that|this|the same)\s+(team|club|side)\b`), models.KindOrganization},
	{regexp.MustCompile(`(?i)\bthe other one\b`), ""},
	{regexp.MustCompile(`(?i)\bthe same one\b`), ""},
}

// Words never treated as entity mentions. Mostly question vocabulary plus
// the greeting forms the router handles on its own.
var skipWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "who": {}, "why": {}, "how": {},
	"tell": {}, "me": {}, "about": {}, "much": {}, "many": {}, "does": {},
	"do": {}, "did": {}, "will": {}, "would": {}, "should": {}, "could": {},
	"can": {}, "i": {}, "my": {}, "you": {}, "your": {}, "we": {}, "our": {},
	"price": {}, "cost": {}, "costs": {}, "points": {}, "stats": {},
	"form": {}, "goals": {}, "assists": {}, "ownership": {}, "value": {},
	"fixture": {}, "fixtures": {}, "match": {}, "matches": {}, "game": {},
	"games": {}, "play": {}, "playing": {}, "plays": {}, "next": {},
	"upcoming": {}, "against": {}, "vs": {}, "versus": {}, "or": {},
	"and": {}, "better": {}, "best": {}, "worst": {}, "top": {}, "good": {},
	"bad": {}, "compare": {}, "between": {}, "pick": {}, "buy": {},
	"sell": {}, "transfer": {}, "captain": {}, "team": {}, "player": {},
	"players": {}, "this": {}, "that": {}, "of": {}, "for": {}, "in": {},
	"on": {}, "to": {}, "at": {}, "week": {}, "gameweek": {}, "gw": {},
	"season": {}, "hello": {}, "hi": {}, "hey": {}, "thanks": {},
	"thank": {}, "bye": {}, "goodbye": {}, "worth": {}, "injured": {},
	"not": {}, "no": {}, "yes": {}, "than": {}, "with": {}, "from": {},
	"he": {}, "him": {}, "his": {}, "she": {}, "her": {}, "hers": {},
	"they": {}, "them": {}, "their": {}, "theirs": {}, "it": {}, "its": {},
}

type Resolver struct {
	matcher  *matcher.Matcher
	sessions session.Store
	logger   *zap.Logger
}

func New(m *matcher.Matcher, sessions session.Store, logger *zap.Logger) *Resolver {
	return &Resolver{matcher: m, sessions: sessions, logger: logger}
}

// Resolve normalizes rawText against the session's history. With no marker
// present it simply extracts explicit entity mentions. With a marker and an
// antecedent available, the marker is rewritten to the entity's display
// name. With a marker and an empty history, NeedsContext is set and the text
// is returned untouched.
func (r *Resolver) Resolve(ctx context.Context, snap *directory.Snapshot, rawText, sessionID string) (Resolution, error) {
	res := Resolution{NormalizedText: rawText}

	explicit, ambiguous := r.extractMentions(snap, rawText)
	res.Entities = explicit
	res.Ambiguous = ambiguous

	mk, loc := findMarker(rawText)
	if mk == nil {
		return res, nil
	}
	res.anaphora = true

	// Explicit mentions take precedence over pronoun resolution.
	if len(explicit) > 0 {
		return res, nil
	}

	recent, err := r.sessions.RecentEntities(ctx, sessionID, recentLookback)
	if err != nil {
		return res, err
	}

	antecedent, ok := pickAntecedent(recent, mk.kind)
	if !ok {
		r.logger.Debug("anaphoric marker with no antecedent",
			zap.String("session_id", sessionID),
			zap.String("text", rawText))
		res.NeedsContext = true
		return res, nil
	}

	// Substitute the first marker occurrence; recency decides among
	// multiple prior entities (last mentioned wins).
	res.NormalizedText = rawText[:loc[0]] + antecedent.DisplayName + rawText[loc[1]:]
	res.Entities = []models.EntityRef{antecedent}
	return res, nil
}

// findMarker returns the first matching marker and its location in text.
func findMarker(text string) (*marker, []int) {
	best := -1
	var found *marker
	var foundLoc []int
	for i := range markers {
		loc := markers[i].pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if best == -1 || loc[0] < best {
			best = loc[0]
			found = &markers[i]
			foundLoc = loc
		}
	}
	return found, foundLoc
}

// pickAntecedent prefers the most recent entity of the marker's kind, then
// falls back to the most recent entity of any kind.
func pickAntecedent(recent []models.EntityRef, kind models.Kind) (models.EntityRef, bool) {
	if len(recent) == 0 {
		return models.EntityRef{}, false
	}
	if kind != "" {
		for _, e := range recent {
			if e.Kind == kind {
				return e, true
			}
		}
	}
	return recent[0], true
}

// extractMentions scans the text for directory entities, trying two-token
// phrases before single tokens so "mohamed salah" is one mention, not two.
// Mentions whose top candidates are too close to separate are reported as
// ambiguous rather than silently picked.
func (r *Resolver) extractMentions(snap *directory.Snapshot, text string) ([]models.EntityRef, []models.EntityRef) {
	tokens := tokenize(text)

	var (
		entities  []models.EntityRef
		ambiguous []models.EntityRef
		seen      = make(map[string]struct{})
	)

	add := func(matches []matcher.Match) {
		if r.matcher.Ambiguous(matches) {
			for _, m := range matches[:2] {
				ambiguous = append(ambiguous, m.Entity)
			}
			return
		}
		e := matches[0].Entity
		if _, dup := seen[e.CanonicalID]; dup {
			return
		}
		seen[e.CanonicalID] = struct{}{}
		entities = append(entities, e)
	}

	for i := 0; i < len(tokens); i++ {
		if _, skip := skipWords[tokens[i]]; skip {
			continue
		}

		if i+1 < len(tokens) {
			if _, skip := skipWords[tokens[i+1]]; !skip {
				phrase := tokens[i] + " " + tokens[i+1]
				if matches := r.matcher.Match(snap, phrase, ""); len(matches) > 0 {
					add(matches)
					i++
					continue
				}
			}
		}

		if matches := r.matcher.Match(snap, tokens[i], ""); len(matches) > 0 {
			add(matches)
		}
	}

	return entities, ambiguous
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '\'')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

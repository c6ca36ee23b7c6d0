// Package matcher fuzzy-matches free text against the entity directory.
package matcher

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/xaenox/fpl-assistant/internal/directory"
	"github.com/xaenox/fpl-assistant/internal/models"
)

// Config tunes acceptance and scoring. Zero values are replaced by defaults.
type Config struct {
	// Floor is the minimum similarity a candidate must reach.
	Floor float64
	// ShortAliasFloor applies instead of Floor when the matched alias is
	// shorter than ShortAliasLen runes; short names over-match easily.
	ShortAliasFloor float64
	ShortAliasLen   int
	// TopK caps the number of returned candidates.
	TopK int
	// AmbiguityDelta is the score gap under which the top two candidates
	// count as an ambiguous match.
	AmbiguityDelta float64
	// PrefixBonus is added when input and alias share a prefix relation.
	PrefixBonus float64
	// KindBonus is added when a kind filter is set and satisfied.
	KindBonus float64
}

func DefaultConfig() Config {
	return Config{
		Floor:           0.6,
		ShortAliasFloor: 0.8,
		ShortAliasLen:   5,
		TopK:            5,
		AmbiguityDelta:  0.05,
		PrefixBonus:     0.05,
		KindBonus:       0.05,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Floor == 0 {
		c.Floor = d.Floor
	}
	if c.ShortAliasFloor == 0 {
		c.ShortAliasFloor = d.ShortAliasFloor
	}
	if c.ShortAliasLen == 0 {
		c.ShortAliasLen = d.ShortAliasLen
	}
	if c.TopK == 0 {
		c.TopK = d.TopK
	}
	if c.AmbiguityDelta == 0 {
		c.AmbiguityDelta = d.AmbiguityDelta
	}
	if c.PrefixBonus == 0 {
		c.PrefixBonus = d.PrefixBonus
	}
	if c.KindBonus == 0 {
		c.KindBonus = d.KindBonus
	}
	return c
}

// Match pairs a directory entity with its similarity score in [0,1].
type Match struct {
	Entity models.EntityRef
	Score  float64
}

type Matcher struct {
	cfg Config
}

func New(cfg Config) *Matcher {
	return &Matcher{cfg: cfg.withDefaults()}
}

// Match scores input against every name and alias in the snapshot and
// returns the top candidates above the acceptance floor, best first.
// kindFilter restricts candidates to one kind; pass "" for any.
//
// An exact case-insensitive hit on a name or alias scores 1.0 outright.
// Otherwise the score is a normalized edit-distance similarity, taken as the
// best of whole-phrase and token-by-token comparison, plus a prefix bonus.
// Ties break toward the shorter display name, preferring primary entities
// over obscure ones that share an alias.
func (m *Matcher) Match(snap *directory.Snapshot, input string, kindFilter models.Kind) []Match {
	query := strings.ToLower(strings.TrimSpace(input))
	if query == "" {
		return nil
	}
	queryTokens := strings.Fields(query)

	var out []Match
	for _, e := range snap.Entities() {
		if kindFilter != "" && e.Kind != kindFilter {
			continue
		}

		best, bestAlias := m.scoreEntity(e, query, queryTokens)
		if best <= 0 {
			continue
		}
		if kindFilter != "" && best < 1.0 {
			best = min(best+m.cfg.KindBonus, 0.99)
		}
		if best < m.floorFor(bestAlias) {
			continue
		}
		out = append(out, Match{Entity: e.Ref(), Score: best})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if len(out[i].Entity.DisplayName) != len(out[j].Entity.DisplayName) {
			return len(out[i].Entity.DisplayName) < len(out[j].Entity.DisplayName)
		}
		return out[i].Entity.DisplayName < out[j].Entity.DisplayName
	})

	if len(out) > m.cfg.TopK {
		out = out[:m.cfg.TopK]
	}
	return out
}

// Ambiguous reports whether the top two candidates are too close to pick
// one silently. The caller should ask for clarification instead.
func (m *Matcher) Ambiguous(matches []Match) bool {
	if len(matches) < 2 {
		return false
	}
	return matches[0].Score-matches[1].Score <= m.cfg.AmbiguityDelta
}

// scoreEntity returns the entity's best score across all its aliases and
// the alias that produced it.
func (m *Matcher) scoreEntity(e directory.Entity, query string, queryTokens []string) (float64, string) {
	var best float64
	bestAlias := e.DisplayName

	for _, alias := range e.Aliases {
		if alias == query {
			return 1.0, alias
		}

		score := similarity(query, alias)
		// Track the form that produced the score so the short-name floor
		// applies to what actually matched, not the full alias.
		matched := alias
		if len(queryTokens) > 1 || strings.Contains(alias, " ") {
			for _, qt := range queryTokens {
				for _, at := range strings.Fields(alias) {
					if s := similarity(qt, at); s > score {
						score = s
						matched = at
					}
				}
			}
		}

		if score < 1.0 && hasPrefixRelation(query, alias) {
			score = min(score+m.cfg.PrefixBonus, 0.99)
		}

		if score > best {
			best = score
			bestAlias = matched
		}
	}
	return best, bestAlias
}

func (m *Matcher) floorFor(alias string) float64 {
	if len([]rune(alias)) < m.cfg.ShortAliasLen {
		return m.cfg.ShortAliasFloor
	}
	return m.cfg.Floor
}

// similarity is a length-normalized Levenshtein similarity in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

func hasPrefixRelation(query, alias string) bool {
	return strings.HasPrefix(alias, query) || strings.HasPrefix(query, alias)
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

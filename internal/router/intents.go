package router

import (
	"regexp"
	"strings"

	"github.com/xaenox/fpl-assistant/internal/models"
)

// conversationalMatcher catches greetings and small talk. Patterns are
// anchored to the start of the query so "hi" inside a data question does not
// hijack it; a resolved entity in the text penalizes the score for the same
// reason.
type conversationalMatcher struct{}

var conversationalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hello|hey|greetings)\b`),
	regexp.MustCompile(`\bhow( a)?re? you\b`),
	regexp.MustCompile(`^good (morning|afternoon|evening)\b`),
	regexp.MustCompile(`^(thanks|thank you|thx)\b`),
	regexp.MustCompile(`^(bye|goodbye|see ya|see you)\b`),
	regexp.MustCompile(`^(yes|no|ok|okay)\s*[.!?]*$`),
	regexp.MustCompile(`^(what'?s up|sup)\b`),
}

func (conversationalMatcher) intent() models.Intent { return models.IntentConversational }

func (conversationalMatcher) score(text string, qc Context) (float64, []string) {
	for _, p := range conversationalPatterns {
		if p.MatchString(text) {
			conf := 98.0
			signals := []string{"greeting:" + p.String()}
			if len(qc.Entities) > 0 {
				conf -= 30
				signals = append(signals, "entity-present-penalty")
			}
			return conf, signals
		}
	}
	return 0, nil
}

// contextualMatcher fires on anaphoric markers still present in the text.
// After a successful substitution the marker is gone and the query scores as
// whatever it became; this matcher covers the cases where history is still
// needed to make sense of the words.
type contextualMatcher struct{}

var contextualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(he|him|his|she|her|hers|they|them|their)\b`),
	regexp.MustCompile(`\b(this|that|the same)\s+(player|team|club|one)\b`),
	regexp.MustCompile(`\bthe other one\b`),
}

func (contextualMatcher) intent() models.Intent { return models.IntentContextual }

func (contextualMatcher) score(text string, qc Context) (float64, []string) {
	for _, p := range contextualPatterns {
		if !p.MatchString(text) {
			continue
		}
		conf := 88.0
		signals := []string{"anaphora:" + p.FindString(text)}
		if qc.AnaphoraResolved {
			conf += 8
			signals = append(signals, "antecedent-resolved")
		} else if qc.AnaphoraUnresolved {
			conf += 4
			signals = append(signals, "antecedent-missing")
		}
		return conf, signals
	}
	return 0, nil
}

// fixturesMatcher covers schedule questions.
type fixturesMatcher struct{}

var (
	fixtureStrongWords = []string{
		"fixture", "fixtures", "upcoming", "opponent", "opponents",
		"next game", "next games", "next match", "kick off", "kickoff",
	}
	// Word-bounded so "player" or "gameweek" never reads as schedule talk.
	fixtureWeakPattern  = regexp.MustCompile(`\b(playing|plays?|match(es)?|games?|against|facing)\b|\bwhen\s+do(es)?\b`)
	fixtureCountPattern = regexp.MustCompile(`next\s+\d+\s+(games?|fixtures?|matches?)`)
)

func (fixturesMatcher) intent() models.Intent { return models.IntentFixtures }

func (fixturesMatcher) score(text string, qc Context) (float64, []string) {
	var conf float64
	var signals []string

	if fixtureCountPattern.MatchString(text) {
		conf = 95
		signals = append(signals, "fixture-count:"+fixtureCountPattern.FindString(text))
	} else if w := containsAny(text, fixtureStrongWords); w != "" {
		conf = 95
		signals = append(signals, "schedule-vocabulary:"+w)
	} else if w := fixtureWeakPattern.FindString(text); w != "" {
		conf = 78
		signals = append(signals, "schedule-vocabulary:"+w)
	} else {
		return 0, nil
	}

	if qc.organizations() > 0 {
		conf = minConf(conf+5, 99)
		signals = append(signals, "club-entity-boost")
	}
	return conf, signals
}

// playerDataMatcher covers direct stat lookups on a named player.
type playerDataMatcher struct{}

var (
	playerDataPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(price|cost|value)\s+of\b`),
		regexp.MustCompile(`\bhow\s+much\s+(is|does)\b`),
		regexp.MustCompile(`\bposition\s+of\b`),
		regexp.MustCompile(`\bteam\s+of\b`),
		regexp.MustCompile(`\bpoints\s+(scored|total)\b`),
	}
	playerDataWords = []string{
		"price", "cost", "costs", "points", "stats", "form", "ownership",
		"goals", "assists", "minutes", "tell me about", "how is",
		"performance",
	}
)

func (playerDataMatcher) intent() models.Intent { return models.IntentPlayerData }

func (playerDataMatcher) score(text string, qc Context) (float64, []string) {
	var conf float64
	var signals []string

	matched := false
	for _, p := range playerDataPatterns {
		if p.MatchString(text) {
			conf = 85
			signals = append(signals, "stat-pattern:"+p.FindString(text))
			matched = true
			break
		}
	}
	if !matched {
		if w := containsAny(text, playerDataWords); w != "" {
			conf = 72
			signals = append(signals, "stat-vocabulary:"+w)
			matched = true
		}
	}
	if !matched {
		return 0, nil
	}

	if qc.people() > 0 {
		conf = minConf(conf+10, 99)
		signals = append(signals, "player-entity-boost")
	}
	return conf, signals
}

// analysisMatcher covers comparisons, strategy and rules questions. It is
// also the designated fallback intent, but this matcher only scores its own
// vocabulary; the fallback path lives in the Router.
type analysisMatcher struct{}

var (
	comparisonWords = []string{
		"compare", "versus", " vs ", " or ", "better", "between",
		"who should i pick", "which player",
	}
	strategyWords = []string{
		"differential", "template", "wildcard", "strategy", "advice",
		"recommend", "suggest", "captain", "budget", "cheap", "premium",
		"transfer", "value picks", "in form", "good form", "best",
	}
	rulesWords = []string{
		"rules", "how many points", "scoring system", "clean sheet points",
		"free transfers", "how does", "how do",
	}
)

func (analysisMatcher) intent() models.Intent { return models.IntentAnalysis }

func (analysisMatcher) score(text string, qc Context) (float64, []string) {
	var conf float64
	var signals []string

	padded := " " + text + " "
	if w := containsAny(padded, comparisonWords); w != "" {
		conf = 70
		signals = append(signals, "comparison-vocabulary:"+strings.TrimSpace(w))
		if len(qc.Entities) >= 2 {
			conf += 15
			signals = append(signals, "multi-entity-boost")
		}
	} else if w := containsAny(text, strategyWords); w != "" {
		conf = 70
		signals = append(signals, "strategy-vocabulary:"+w)
	} else if w := containsAny(text, rulesWords); w != "" {
		conf = 68
		signals = append(signals, "rules-vocabulary:"+w)
	}

	return conf, signals
}

func containsAny(text string, words []string) string {
	for _, w := range words {
		if strings.Contains(text, w) {
			return w
		}
	}
	return ""
}

func minConf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

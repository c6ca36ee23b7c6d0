package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/fpl-assistant/internal/directory"
	"github.com/xaenox/fpl-assistant/internal/fpl"
	"github.com/xaenox/fpl-assistant/internal/models"
)

func testSnapshot() *directory.Snapshot {
	return directory.BuildSnapshot(&fpl.Bootstrap{
		Teams: []fpl.Team{
			{ID: 1, Name: "Arsenal", ShortName: "ARS"},
			{ID: 2, Name: "Tottenham", ShortName: "TOT"},
			{ID: 3, Name: "Manchester City", ShortName: "MCI"},
		},
		Elements: []fpl.Element{
			{ID: 10, WebName: "Salah", FirstName: "Mohamed", SecondName: "Salah"},
			{ID: 11, WebName: "Haaland", FirstName: "Erling", SecondName: "Haaland"},
			{ID: 12, WebName: "Saka", FirstName: "Bukayo", SecondName: "Saka"},
			{ID: 13, WebName: "Son", FirstName: "Heung-min", SecondName: "Son"},
			{ID: 14, WebName: "Watkins", FirstName: "Ollie", SecondName: "Watkins"},
		},
	})
}

func TestExactNameScoresOne(t *testing.T) {
	m := New(Config{})
	snap := testSnapshot()

	for _, name := range []string{"Salah", "salah", "HAALAND", "Arsenal", "Mohamed Salah"} {
		matches := m.Match(snap, name, "")
		require.NotEmpty(t, matches, "no match for %q", name)
		assert.Equal(t, 1.0, matches[0].Score, "input %q", name)
	}
}

func TestMisspellingWithinTwoEditsMatches(t *testing.T) {
	m := New(Config{})
	snap := testSnapshot()

	cases := map[string]string{
		"salh":    "Salah",   // one deletion
		"haland":  "Haaland", // one deletion
		"halland": "Haaland", // one substitution-ish
		"watkin":  "Watkins", // one deletion
	}
	for input, want := range cases {
		matches := m.Match(snap, input, "")
		require.NotEmpty(t, matches, "no match for %q", input)
		assert.Equal(t, want, matches[0].Entity.DisplayName, "input %q", input)
		assert.GreaterOrEqual(t, matches[0].Score, 0.6, "input %q", input)
	}
}

func TestNicknameResolvesClub(t *testing.T) {
	m := New(Config{})
	snap := testSnapshot()

	matches := m.Match(snap, "spurs", "")
	require.NotEmpty(t, matches)
	assert.Equal(t, "Tottenham", matches[0].Entity.DisplayName)
	assert.Equal(t, 1.0, matches[0].Score)

	matches = m.Match(snap, "city", models.KindOrganization)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Manchester City", matches[0].Entity.DisplayName)
}

func TestKindFilterRestrictsCandidates(t *testing.T) {
	m := New(Config{})
	snap := testSnapshot()

	for _, match := range m.Match(snap, "arsenal", models.KindPerson) {
		assert.Equal(t, models.KindPerson, match.Entity.Kind)
	}
}

func TestMultiWordPhraseMatchesTokenByToken(t *testing.T) {
	m := New(Config{})
	snap := testSnapshot()

	matches := m.Match(snap, "erling haaland", "")
	require.NotEmpty(t, matches)
	assert.Equal(t, "Haaland", matches[0].Entity.DisplayName)
	assert.Equal(t, 1.0, matches[0].Score)
}

func TestShortInputsNeedHigherSimilarity(t *testing.T) {
	m := New(Config{})
	snap := testSnapshot()

	// "sin" is one edit from the three-rune alias "son" but short aliases
	// demand near-exact input.
	for _, match := range m.Match(snap, "sin", "") {
		assert.NotEqual(t, "Son", match.Entity.DisplayName)
	}

	// Exact short input still works.
	matches := m.Match(snap, "son", "")
	require.NotEmpty(t, matches)
	assert.Equal(t, "Son", matches[0].Entity.DisplayName)
}

func TestNoMatchBelowFloor(t *testing.T) {
	m := New(Config{})
	snap := testSnapshot()

	assert.Empty(t, m.Match(snap, "zzzzqqqq", ""))
	assert.Empty(t, m.Match(snap, "", ""))
}

func TestAmbiguityDetection(t *testing.T) {
	m := New(Config{})

	refs := func(score1, score2 float64) []Match {
		return []Match{
			{Entity: models.EntityRef{DisplayName: "A"}, Score: score1},
			{Entity: models.EntityRef{DisplayName: "B"}, Score: score2},
		}
	}

	assert.True(t, m.Ambiguous(refs(0.80, 0.78)))
	assert.False(t, m.Ambiguous(refs(0.95, 0.70)))
	assert.False(t, m.Ambiguous(refs(0.95, 0.70)[:1]))
	assert.False(t, m.Ambiguous(nil))
}

func TestDeterministicOrdering(t *testing.T) {
	m := New(Config{})
	snap := testSnapshot()

	first := m.Match(snap, "saka", "")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Match(snap, "saka", ""))
	}
}

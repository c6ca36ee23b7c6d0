package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/fpl-assistant/internal/directory"
	"github.com/xaenox/fpl-assistant/internal/fpl"
	"github.com/xaenox/fpl-assistant/internal/matcher"
	"github.com/xaenox/fpl-assistant/internal/models"
	"github.com/xaenox/fpl-assistant/internal/session"
)

func testSnapshot() *directory.Snapshot {
	return directory.BuildSnapshot(&fpl.Bootstrap{
		Teams: []fpl.Team{
			{ID: 1, Name: "Arsenal", ShortName: "ARS"},
			{ID: 2, Name: "Liverpool", ShortName: "LIV"},
		},
		Elements: []fpl.Element{
			{ID: 10, WebName: "Salah", FirstName: "Mohamed", SecondName: "Salah"},
			{ID: 11, WebName: "Haaland", FirstName: "Erling", SecondName: "Haaland"},
		},
	})
}

func newTestResolver(t *testing.T) (*Resolver, session.Store) {
	t.Helper()
	store := session.NewMemoryStore(5)
	r := New(matcher.New(matcher.Config{}), store, zap.NewNop())
	return r, store
}

func appendTurn(t *testing.T, store session.Store, sessionID string, entities ...models.EntityRef) {
	t.Helper()
	require.NoError(t, store.Append(context.Background(), sessionID, models.Turn{
		ID:        "t",
		UserText:  "prior turn",
		Entities:  entities,
		Intent:    models.IntentPlayerData,
		CreatedAt: time.Now(),
	}))
}

func entity(id, name string, kind models.Kind) models.EntityRef {
	return models.EntityRef{CanonicalID: id, DisplayName: name, Kind: kind}
}

func TestNoMarkerExtractsExplicitEntities(t *testing.T) {
	r, _ := newTestResolver(t)

	res, err := r.Resolve(context.Background(), testSnapshot(), "Tell me about Salah", "s1")
	require.NoError(t, err)

	assert.False(t, res.NeedsContext)
	assert.False(t, res.HasAnaphora())
	assert.Equal(t, "Tell me about Salah", res.NormalizedText)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Salah", res.Entities[0].DisplayName)
}

func TestPronounResolvesToLastMentioned(t *testing.T) {
	r, store := newTestResolver(t)

	appendTurn(t, store, "s1", entity("player:10", "Salah", models.KindPerson))
	appendTurn(t, store, "s1", entity("player:11", "Haaland", models.KindPerson))

	res, err := r.Resolve(context.Background(), testSnapshot(), "how much does he cost?", "s1")
	require.NoError(t, err)

	assert.False(t, res.NeedsContext)
	assert.True(t, res.HasAnaphora())
	assert.Equal(t, "how much does Haaland cost?", res.NormalizedText)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Haaland", res.Entities[0].DisplayName)
}

func TestEmptySessionLeavesPronounUnresolved(t *testing.T) {
	r, _ := newTestResolver(t)

	res, err := r.Resolve(context.Background(), testSnapshot(), "is he worth it?", "fresh")
	require.NoError(t, err)

	assert.True(t, res.NeedsContext)
	assert.True(t, res.HasAnaphora())
	assert.Empty(t, res.Entities)
	assert.Equal(t, "is he worth it?", res.NormalizedText)
}

func TestExplicitMentionBeatsPronoun(t *testing.T) {
	r, store := newTestResolver(t)

	appendTurn(t, store, "s1", entity("player:11", "Haaland", models.KindPerson))

	res, err := r.Resolve(context.Background(), testSnapshot(), "is Salah better than him?", "s1")
	require.NoError(t, err)

	assert.False(t, res.NeedsContext)
	require.NotEmpty(t, res.Entities)
	assert.Equal(t, "Salah", res.Entities[0].DisplayName)
	// Text stays untouched when explicit mentions win.
	assert.Equal(t, "is Salah better than him?", res.NormalizedText)
}

func TestMarkerKindPreference(t *testing.T) {
	r, store := newTestResolver(t)

	// Most recent entity is a club, but "he" wants a person.
	appendTurn(t, store, "s1",
		entity("player:10", "Salah", models.KindPerson),
		entity("team:1", "Arsenal", models.KindOrganization))

	res, err := r.Resolve(context.Background(), testSnapshot(), "is he in form?", "s1")
	require.NoError(t, err)

	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Salah", res.Entities[0].DisplayName)
}

func TestDemonstrativeTeamMarker(t *testing.T) {
	r, store := newTestResolver(t)

	appendTurn(t, store, "s1",
		entity("team:2", "Liverpool", models.KindOrganization),
		entity("player:10", "Salah", models.KindPerson))

	res, err := r.Resolve(context.Background(), testSnapshot(), "when does that team play next?", "s1")
	require.NoError(t, err)

	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Liverpool", res.Entities[0].DisplayName)
	assert.Contains(t, res.NormalizedText, "Liverpool")
}

func TestTwoEntityComparisonExtraction(t *testing.T) {
	r, _ := newTestResolver(t)

	res, err := r.Resolve(context.Background(), testSnapshot(), "Salah or Haaland this week?", "s1")
	require.NoError(t, err)

	require.Len(t, res.Entities, 2)
	assert.Equal(t, "Salah", res.Entities[0].DisplayName)
	assert.Equal(t, "Haaland", res.Entities[1].DisplayName)
}

func TestPlainQuestionHasNoEntities(t *testing.T) {
	r, _ := newTestResolver(t)

	res, err := r.Resolve(context.Background(), testSnapshot(), "what are the wildcard rules?", "s1")
	require.NoError(t, err)

	assert.False(t, res.NeedsContext)
	assert.Empty(t, res.Entities)
}

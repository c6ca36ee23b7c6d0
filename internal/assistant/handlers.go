package assistant

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xaenox/fpl-assistant/internal/datacache"
	"github.com/xaenox/fpl-assistant/internal/fpl"
	"github.com/xaenox/fpl-assistant/internal/models"
)

// Intent handlers build the context block handed to the generator. Each one
// pulls through the cache layer, so origin load stays bounded no matter how
// chatty a session gets.

const defaultFixtureLimit = 5

var fixtureLimitPattern = regexp.MustCompile(`next\s+(\d+)`)

func (a *Assistant) buildContext(ctx context.Context, text string, entities []models.EntityRef, intent models.Intent) (string, error) {
	switch intent {
	case models.IntentFixtures:
		return a.fixturesContext(ctx, text, entities)
	case models.IntentPlayerData, models.IntentContextual:
		return a.playersContext(ctx, entities, false)
	case models.IntentAnalysis:
		if people(entities) >= 2 {
			return a.playersContext(ctx, entities, true)
		}
		return a.topPerformersContext(ctx)
	default:
		return "", nil
	}
}

// playersContext emits one data block per mentioned player. In comparison
// mode the blocks are numbered so the generator keeps them apart.
func (a *Assistant) playersContext(ctx context.Context, entities []models.EntityRef, comparison bool) (string, error) {
	bootstrap, err := a.bootstrap(ctx, datacache.CategoryStats)
	if err != nil {
		return "", err
	}

	teams := teamNames(bootstrap)
	positions := positionNames(bootstrap)

	var b strings.Builder
	n := 0
	for _, e := range entities {
		if e.Kind != models.KindPerson {
			continue
		}
		element, ok := findElement(bootstrap, e.CanonicalID)
		if !ok {
			fmt.Fprintf(&b, "%s is not in the current FPL data.\n\n", e.DisplayName)
			continue
		}
		n++
		if comparison {
			fmt.Fprintf(&b, "PLAYER %d DATA:\n", n)
		}
		writePlayerBlock(&b, element, teams, positions)
		if !comparison {
			a.writeRecentMatches(ctx, &b, element.ID)
		}
		b.WriteString("\n")
	}

	if n == 0 {
		return a.topPerformersContext(ctx)
	}
	return b.String(), nil
}

func writePlayerBlock(b *strings.Builder, e fpl.Element, teams map[int]string, positions map[int]string) {
	fmt.Fprintf(b, "PLAYER DATA for %s:\n", e.FullName())
	fmt.Fprintf(b, "Team: %s\n", teams[e.Team])
	fmt.Fprintf(b, "Position: %s\n", positions[e.ElementType])
	fmt.Fprintf(b, "Price: £%.1fm\n", e.Price())
	fmt.Fprintf(b, "Total Points: %d\n", e.TotalPoints)
	fmt.Fprintf(b, "Form: %s\n", e.Form)
	fmt.Fprintf(b, "Ownership: %s%%\n", e.SelectedByPercent)
	if !e.Available() && e.News != "" {
		fmt.Fprintf(b, "Status: unavailable - %s\n", e.News)
	}
}

// writeRecentMatches appends the player's last few gameweek scores when the
// per-player feed is available. Best effort: a miss only omits the block.
func (a *Assistant) writeRecentMatches(ctx context.Context, b *strings.Builder, playerID int) {
	res, err := a.cache.Fetch(ctx, fpl.ElementSummaryEndpoint(playerID), datacache.CategoryStats)
	if err != nil {
		return
	}
	summary, err := fpl.ParseElementSummary(res.Payload)
	if err != nil || len(summary.History) == 0 {
		return
	}

	history := summary.History
	if len(history) > 5 {
		history = history[len(history)-5:]
	}
	b.WriteString("Recent matches:\n")
	for _, h := range history {
		fmt.Fprintf(b, "GW%d: %d pts, %d mins\n", h.Round, h.TotalPoints, h.Minutes)
	}
}

// fixturesContext lists a club's upcoming fixtures, honoring "next N"
// phrasing in the query.
func (a *Assistant) fixturesContext(ctx context.Context, text string, entities []models.EntityRef) (string, error) {
	club, ok := firstOrganization(entities)
	if !ok {
		return a.upcomingFixturesContext(ctx)
	}
	teamID, err := numericID(club.CanonicalID)
	if err != nil {
		return "", err
	}

	fixtures, err := a.fixtures(ctx)
	if err != nil {
		return "", err
	}
	bootstrap, err := a.bootstrap(ctx, datacache.CategoryStats)
	if err != nil {
		return "", err
	}
	teams := teamNames(bootstrap)

	limit := defaultFixtureLimit
	if m := fixtureLimitPattern.FindStringSubmatch(strings.ToLower(text)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			limit = n
		}
	}

	var upcoming []fpl.Fixture
	for _, f := range fixtures {
		if f.Finished || f.Event == nil {
			continue
		}
		if f.TeamH == teamID || f.TeamA == teamID {
			upcoming = append(upcoming, f)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return *upcoming[i].Event < *upcoming[j].Event })
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}

	if len(upcoming) == 0 {
		return fmt.Sprintf("No upcoming fixtures found for %s.\n", club.DisplayName), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TEAM FIXTURE DATA for %s:\n", club.DisplayName)
	for _, f := range upcoming {
		venue := "Home"
		opponent := teams[f.TeamA]
		if f.TeamA == teamID {
			venue = "Away"
			opponent = teams[f.TeamH]
		}
		fmt.Fprintf(&b, "Gameweek %d: %s vs %s (%s)\n", *f.Event, club.DisplayName, opponent, venue)
	}
	return b.String(), nil
}

// upcomingFixturesContext is the no-club fallback: the next batch of
// fixtures league-wide.
func (a *Assistant) upcomingFixturesContext(ctx context.Context) (string, error) {
	fixtures, err := a.fixtures(ctx)
	if err != nil {
		return "", err
	}
	bootstrap, err := a.bootstrap(ctx, datacache.CategoryStats)
	if err != nil {
		return "", err
	}
	teams := teamNames(bootstrap)

	var upcoming []fpl.Fixture
	for _, f := range fixtures {
		if !f.Finished && f.Event != nil {
			upcoming = append(upcoming, f)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return *upcoming[i].Event < *upcoming[j].Event })
	if len(upcoming) > 15 {
		upcoming = upcoming[:15]
	}

	var b strings.Builder
	b.WriteString("UPCOMING FIXTURES:\n")
	for _, f := range upcoming {
		fmt.Fprintf(&b, "GW%d: %s vs %s\n", *f.Event, teams[f.TeamH], teams[f.TeamA])
	}
	return b.String(), nil
}

// topPerformersContext backs broad strategy questions with the current
// top-scoring available players.
func (a *Assistant) topPerformersContext(ctx context.Context) (string, error) {
	bootstrap, err := a.bootstrap(ctx, datacache.CategoryStats)
	if err != nil {
		return "", err
	}

	teams := teamNames(bootstrap)
	positions := positionNames(bootstrap)

	active := make([]fpl.Element, 0, len(bootstrap.Elements))
	for _, e := range bootstrap.Elements {
		if e.Available() {
			active = append(active, e)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].TotalPoints > active[j].TotalPoints })
	if len(active) > 10 {
		active = active[:10]
	}

	var b strings.Builder
	b.WriteString("CURRENT TOP PERFORMERS:\n")
	for i, e := range active {
		fmt.Fprintf(&b, "%d. %s (%s, %s) - %d pts, £%.1fm, form %s\n",
			i+1, e.WebName, teams[e.Team], positions[e.ElementType],
			e.TotalPoints, e.Price(), e.Form)
	}
	return b.String(), nil
}

func (a *Assistant) bootstrap(ctx context.Context, cat datacache.Category) (*fpl.Bootstrap, error) {
	res, err := a.cache.Fetch(ctx, fpl.EndpointBootstrap, cat)
	if err != nil {
		return nil, err
	}
	return fpl.ParseBootstrap(res.Payload)
}

func (a *Assistant) fixtures(ctx context.Context) ([]fpl.Fixture, error) {
	res, err := a.cache.Fetch(ctx, fpl.EndpointFixtures, datacache.CategorySchedule)
	if err != nil {
		return nil, err
	}
	return fpl.ParseFixtures(res.Payload)
}

func teamNames(b *fpl.Bootstrap) map[int]string {
	out := make(map[int]string, len(b.Teams))
	for _, t := range b.Teams {
		out[t.ID] = t.Name
	}
	return out
}

func positionNames(b *fpl.Bootstrap) map[int]string {
	out := make(map[int]string, len(b.ElementTypes))
	for _, p := range b.ElementTypes {
		out[p.ID] = p.SingularName
	}
	return out
}

func findElement(b *fpl.Bootstrap, canonicalID string) (fpl.Element, bool) {
	id, err := numericID(canonicalID)
	if err != nil {
		return fpl.Element{}, false
	}
	for _, e := range b.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return fpl.Element{}, false
}

// numericID strips the "player:"/"team:" prefix from a canonical ID.
func numericID(canonicalID string) (int, error) {
	_, raw, ok := strings.Cut(canonicalID, ":")
	if !ok {
		return 0, fmt.Errorf("malformed canonical id %q", canonicalID)
	}
	return strconv.Atoi(raw)
}

func people(entities []models.EntityRef) int {
	n := 0
	for _, e := range entities {
		if e.Kind == models.KindPerson {
			n++
		}
	}
	return n
}

func firstOrganization(entities []models.EntityRef) (models.EntityRef, bool) {
	for _, e := range entities {
		if e.Kind == models.KindOrganization {
			return e, true
		}
	}
	return models.EntityRef{}, false
}

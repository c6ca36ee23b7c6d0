// Package directory maintains the canonical entity directory: every player
// and club the assistant can recognize, with known aliases and nicknames.
// The directory is rebuilt wholesale from the FPL bootstrap feed and swapped
// atomically, so in-flight requests keep the snapshot they started with.
package directory

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/fpl-assistant/internal/datacache"
	"github.com/xaenox/fpl-assistant/internal/fpl"
	"github.com/xaenox/fpl-assistant/internal/models"
)

// Entity is one directory record. Aliases are lowercase.
type Entity struct {
	ID          string
	DisplayName string
	Kind        models.Kind
	Aliases     []string
}

// Ref converts a directory record to the reference form stored on turns.
func (e Entity) Ref() models.EntityRef {
	return models.EntityRef{
		CanonicalID: e.ID,
		DisplayName: e.DisplayName,
		Kind:        e.Kind,
	}
}

// Snapshot is one immutable build of the directory.
type Snapshot struct {
	byID    map[string]Entity
	ordered []Entity
	builtAt time.Time
}

func (s *Snapshot) Entities() []Entity { return s.ordered }

func (s *Snapshot) Get(id string) (Entity, bool) {
	e, ok := s.byID[id]
	return e, ok
}

func (s *Snapshot) Len() int { return len(s.ordered) }

// Club nicknames the bootstrap feed does not carry, keyed by FPL short name.
var clubNicknames = map[string][]string{
	"AVL": {"villa"},
	"CRY": {"palace"},
	"MCI": {"city", "man city"},
	"MUN": {"united", "man utd", "man united"},
	"NFO": {"forest"},
	"TOT": {"spurs"},
	"WHU": {"hammers"},
	"WOL": {"wolves"},
}

// BuildSnapshot constructs a snapshot from a parsed bootstrap payload.
// Clubs come first so organization ties resolve ahead of obscure players.
func BuildSnapshot(b *fpl.Bootstrap) *Snapshot {
	snap := &Snapshot{
		byID:    make(map[string]Entity, len(b.Elements)+len(b.Teams)),
		builtAt: time.Now(),
	}

	for _, t := range b.Teams {
		e := Entity{
			ID:          fmt.Sprintf("team:%d", t.ID),
			DisplayName: t.Name,
			Kind:        models.KindOrganization,
			Aliases:     clubAliases(t),
		}
		snap.byID[e.ID] = e
		snap.ordered = append(snap.ordered, e)
	}

	for _, p := range b.Elements {
		e := Entity{
			ID:          fmt.Sprintf("player:%d", p.ID),
			DisplayName: p.WebName,
			Kind:        models.KindPerson,
			Aliases:     playerAliases(p),
		}
		snap.byID[e.ID] = e
		snap.ordered = append(snap.ordered, e)
	}

	return snap
}

func clubAliases(t fpl.Team) []string {
	aliases := []string{strings.ToLower(t.Name)}
	if short := strings.ToLower(t.ShortName); short != "" && short != aliases[0] {
		aliases = append(aliases, short)
	}
	for _, nick := range clubNicknames[t.ShortName] {
		if nick != aliases[0] {
			aliases = append(aliases, nick)
		}
	}
	return aliases
}

func playerAliases(p fpl.Element) []string {
	seen := make(map[string]struct{}, 3)
	var aliases []string
	for _, a := range []string{p.WebName, p.FullName(), p.SecondName} {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		aliases = append(aliases, a)
	}
	return aliases
}

// Directory serves the current snapshot and refreshes it from the reference
// feed through the cache layer.
type Directory struct {
	cache  *datacache.Store
	logger *zap.Logger
	snap   atomic.Pointer[Snapshot]
}

func New(cache *datacache.Store, logger *zap.Logger) *Directory {
	d := &Directory{cache: cache, logger: logger}
	d.snap.Store(&Snapshot{byID: map[string]Entity{}})
	return d
}

// Snapshot returns the current directory build. Never nil.
func (d *Directory) Snapshot() *Snapshot {
	return d.snap.Load()
}

// Swap installs a pre-built snapshot. Used by tests and by Refresh.
func (d *Directory) Swap(s *Snapshot) {
	d.snap.Store(s)
}

// Refresh rebuilds the directory from the bootstrap feed.
func (d *Directory) Refresh(ctx context.Context) error {
	res, err := d.cache.Fetch(ctx, fpl.EndpointBootstrap, datacache.CategoryReference)
	if err != nil {
		return fmt.Errorf("directory refresh: %w", err)
	}

	bootstrap, err := fpl.ParseBootstrap(res.Payload)
	if err != nil {
		return fmt.Errorf("directory refresh: %w", err)
	}

	snap := BuildSnapshot(bootstrap)
	d.snap.Store(snap)

	d.logger.Info("entity directory refreshed",
		zap.Int("entities", snap.Len()),
		zap.Bool("stale_source", res.Stale))
	return nil
}

// StartRefresher refreshes on a fixed interval until ctx is cancelled. A
// failed refresh keeps the previous snapshot in place.
func (d *Directory) StartRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := d.Refresh(ctx); err != nil {
					d.logger.Warn("directory refresh failed, keeping previous snapshot",
						zap.Error(err))
				}
			}
		}
	}()
}

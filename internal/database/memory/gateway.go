// Package memory provides an in-memory Gateway used in tests and for
// running the crawlers without a real database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Gustavo-Feijo/league-crawler/internal/database"
)

// Gateway keeps every record in process memory behind one mutex. Semantics
// mirror the Postgres store: idempotent match inserts, cursor-preserving
// player upserts, monotonic cursor advancement.
type Gateway struct {
	mu      sync.Mutex
	players map[string]database.PlayerRecord // by puuid
	matches map[string]database.MatchRecord  // by external match id
	ratings []database.RatingRecord
	stats   []database.StatRecord

	cursorAdvances map[string][]time.Time
}

var _ database.Gateway = (*Gateway)(nil)

// New returns an empty Gateway.
func New() *Gateway {
	return &Gateway{
		players:        make(map[string]database.PlayerRecord),
		matches:        make(map[string]database.MatchRecord),
		cursorAdvances: make(map[string][]time.Time),
	}
}

// NextCursorPlayer returns the player with the oldest cursor among the given
// sub-regions.
func (g *Gateway) NextCursorPlayer(_ context.Context, subRegions []string) (*database.PlayerRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	allowed := make(map[string]bool, len(subRegions))
	for _, r := range subRegions {
		allowed[r] = true
	}

	var candidates []database.PlayerRecord
	for _, p := range g.players {
		if allowed[p.Region] {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastMatchFetch.Before(candidates[j].LastMatchFetch)
	})
	p := candidates[0]
	return &p, nil
}

// GetPlayer returns the stored player for a puuid, or nil.
func (g *Gateway) GetPlayer(_ context.Context, puuid string) (*database.PlayerRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[puuid]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// MatchExists reports whether a match id has been stored.
func (g *Gateway) MatchExists(_ context.Context, matchID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.matches[matchID]
	return ok, nil
}

// RegionHasAnyPlayer reports whether any player carries the region tag.
func (g *Gateway) RegionHasAnyPlayer(_ context.Context, region string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.players {
		if p.Region == region {
			return true, nil
		}
	}
	return false, nil
}

// LatestRatingFor returns the newest snapshot for a summoner, or nil.
func (g *Gateway) LatestRatingFor(_ context.Context, summonerID string) (*database.RatingRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var latest *database.RatingRecord
	for i := range g.ratings {
		r := g.ratings[i]
		if r.SummonerID != summonerID {
			continue
		}
		if latest == nil || r.FetchTime.After(latest.FetchTime) {
			latest = &g.ratings[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

// UpsertPlayers inserts unseen players and refreshes display fields of known
// ones, leaving their cursor alone.
func (g *Gateway) UpsertPlayers(_ context.Context, players []database.PlayerRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range players {
		if p.LastMatchFetch.IsZero() {
			p.LastMatchFetch = database.DefaultCursor
		}
		if existing, ok := g.players[p.PUUID]; ok {
			p.LastMatchFetch = existing.LastMatchFetch
		}
		g.players[p.PUUID] = p
	}
	return nil
}

// InsertMatch stores the match; duplicates are a no-op.
func (g *Gateway) InsertMatch(_ context.Context, m database.MatchRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.matches[m.MatchID]; ok {
		return nil
	}
	g.matches[m.MatchID] = m
	return nil
}

// InsertStats appends stat rows.
func (g *Gateway) InsertStats(_ context.Context, stats []database.StatRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats = append(g.stats, stats...)
	return nil
}

// InsertRatings appends snapshots.
func (g *Gateway) InsertRatings(_ context.Context, ratings []database.RatingRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ratings = append(g.ratings, ratings...)
	return nil
}

// AdvanceCursor moves a player's cursor forward, never backward.
func (g *Gateway) AdvanceCursor(_ context.Context, puuid string, ts time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursorAdvances[puuid] = append(g.cursorAdvances[puuid], ts)
	p, ok := g.players[puuid]
	if !ok {
		return nil
	}
	if ts.After(p.LastMatchFetch) {
		p.LastMatchFetch = ts
		g.players[puuid] = p
	}
	return nil
}

// Close is a no-op.
func (g *Gateway) Close() {}

// Players returns a snapshot of all stored players.
func (g *Gateway) Players() []database.PlayerRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]database.PlayerRecord, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PUUID < out[j].PUUID })
	return out
}

// Matches returns a snapshot of all stored matches.
func (g *Gateway) Matches() []database.MatchRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]database.MatchRecord, 0, len(g.matches))
	for _, m := range g.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out
}

// Ratings returns a snapshot of all stored rating rows.
func (g *Gateway) Ratings() []database.RatingRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]database.RatingRecord(nil), g.ratings...)
}

// Stats returns a snapshot of all stored stat rows.
func (g *Gateway) Stats() []database.StatRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]database.StatRecord(nil), g.stats...)
}

// CursorAdvances returns every timestamp AdvanceCursor was called with for a
// player, in call order.
func (g *Gateway) CursorAdvances(puuid string) []time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]time.Time(nil), g.cursorAdvances[puuid]...)
}

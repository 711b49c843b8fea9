package crawler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Gustavo-Feijo/league-crawler/internal/database"
	"github.com/Gustavo-Feijo/league-crawler/internal/regions"
	"github.com/Gustavo-Feijo/league-crawler/internal/telemetry"
	"github.com/Gustavo-Feijo/league-crawler/internal/transform"
)

// matchPageSize is the window requested per match-id listing call; a page
// shorter than this marks the end of the list.
const matchPageSize = 100

// MatchConfig tunes one match crawler.
type MatchConfig struct {
	// MaxPages caps the match-detail fetches of one iteration at this many
	// pages' worth (MaxPages * 100), so one player with a huge backlog
	// cannot starve the rest of the region. The id listing itself is always
	// drained; only the expensive detail work is bounded. Zero means no cap.
	MaxPages int
	// BootstrapPoll is the store-poll fallback interval used while waiting
	// for the region's first player after a process restart.
	BootstrapPoll time.Duration
}

// Match harvests match history for one main region, always serving the
// player with the oldest fetch cursor first.
type Match struct {
	main   regions.MainRegion
	subs   []string
	client MatchAPI
	gw     database.Gateway
	signal *Signal
	logger *zap.Logger
	cfg    MatchConfig
	now    func() time.Time
}

// NewMatch constructs a match crawler for one main region.
func NewMatch(main regions.MainRegion, subs []regions.SubRegion, client MatchAPI, gw database.Gateway, signal *Signal, cfg MatchConfig, logger *zap.Logger) *Match {
	if cfg.BootstrapPoll <= 0 {
		cfg.BootstrapPoll = 15 * time.Second
	}
	return &Match{
		main:   main,
		subs:   regions.Strings(subs),
		client: client,
		gw:     gw,
		signal: signal,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WaitForBootstrap blocks until the region has at least one player to crawl:
// either the paired ladder crawler fires the readiness signal, or the
// fallback store poll finds a player seeded by a previous run.
func (m *Match) WaitForBootstrap(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.BootstrapPoll)
	defer ticker.Stop()
	for {
		player, err := m.gw.NextCursorPlayer(ctx, m.subs)
		if err != nil {
			return err
		}
		if player != nil {
			m.logger.Info("region ready", zap.String("region", string(m.main)))
			return nil
		}
		m.logger.Info("awaiting bootstrap", zap.String("region", string(m.main)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.signal.Ready():
		case <-ticker.C:
		}
	}
}

// Iterate runs one crawl pass: pick the player with the oldest cursor, pull
// their new match ids, persist unseen matches up to the per-pass budget,
// then advance the cursor. Any error aborts the pass with the cursor
// untouched, so the same work is retried on a later pass; the dedup gate
// makes the retry cheap.
func (m *Match) Iterate(ctx context.Context) error {
	player, err := m.gw.NextCursorPlayer(ctx, m.subs)
	if err != nil {
		return err
	}
	if player == nil {
		m.logger.Warn("no player to crawl", zap.String("region", string(m.main)))
		return nil
	}
	log := m.logger.With(
		zap.String("region", string(m.main)),
		zap.String("puuid", player.PUUID),
	)
	telemetry.SetOldestCursorDelay(string(m.main), m.now().Sub(player.LastMatchFetch))

	ids, err := m.listMatchIDs(ctx, player)
	if err != nil {
		return err
	}
	log.Debug("match list collected", zap.Int("count", len(ids)))

	// The listing is newest-first and lower-bounded by the cursor, so the
	// backlog is worked from the oldest end backward: the cursor can then
	// trail the handled prefix, and anything left unfetched when the budget
	// runs out is newer than the cursor and reappears next pass.
	budget := m.cfg.MaxPages * matchPageSize
	fetched, processed := 0, 0
	var newestHandled time.Time
	truncated := false
	for i := len(ids) - 1; i >= 0; i-- {
		if budget > 0 && fetched >= budget {
			truncated = true
			break
		}
		start, wrote, didFetch, err := m.processMatch(ctx, ids[i])
		if err != nil {
			return err
		}
		if didFetch {
			fetched++
		}
		if wrote {
			processed++
		}
		if start.After(newestHandled) {
			newestHandled = start
		}
	}

	cursor := m.now().UTC()
	if truncated {
		if newestHandled.IsZero() {
			// Nothing fetched carried a usable start time; leave the cursor
			// alone so the next pass retries the same window.
			log.Warn("capped pass handled no timestamped match, cursor unchanged")
			return nil
		}
		cursor = newestHandled
	}
	if err := m.gw.AdvanceCursor(ctx, player.PUUID, cursor); err != nil {
		return err
	}
	log.Info("player harvested",
		zap.Int("listed", len(ids)),
		zap.Int("fetched", fetched),
		zap.Int("processed", processed),
		zap.Bool("truncated", truncated),
		zap.Time("cursor", cursor),
	)
	return nil
}

// listMatchIDs drains the player's match-id listing from offset 0 until a
// short page. Listing pages are cheap (one request per hundred ids); the
// per-iteration budget applies to detail fetches, not to the listing.
func (m *Match) listMatchIDs(ctx context.Context, player *database.PlayerRecord) ([]string, error) {
	var ids []string
	for page := 0; ; page++ {
		batch, err := m.client.MatchIDs(ctx, m.main, player.PUUID, player.LastMatchFetch, page*matchPageSize, matchPageSize)
		if err != nil {
			return nil, fmt.Errorf("list matches: %w", err)
		}
		ids = append(ids, batch...)
		if len(batch) < matchPageSize {
			return ids, nil
		}
	}
}

// processMatch persists one unseen match. It returns the match start time,
// whether rows were written, and whether a detail fetch was spent;
// already-stored matches cost nothing, aborted ones spend a fetch but write
// no rows.
func (m *Match) processMatch(ctx context.Context, id string) (time.Time, bool, bool, error) {
	exists, err := m.gw.MatchExists(ctx, id)
	if err != nil {
		return time.Time{}, false, false, err
	}
	if exists {
		return time.Time{}, false, false, nil
	}

	payload, err := m.client.MatchByID(ctx, m.main, id)
	if err != nil {
		return time.Time{}, false, true, err
	}
	bundle, err := transform.MatchFromPayload(payload)
	if err != nil {
		return time.Time{}, false, true, err
	}
	if bundle == nil {
		// Aborted game: no rows, but its start still anchors the cursor so
		// the game is not refetched forever.
		var start time.Time
		if payload.Info.GameCreation > 0 {
			start = time.UnixMilli(payload.Info.GameCreation).UTC()
		}
		return start, false, true, nil
	}

	fresh, err := m.filterStaleObservations(ctx, bundle)
	if err != nil {
		return time.Time{}, false, true, err
	}

	// Referential order: parents before children.
	if err := m.gw.UpsertPlayers(ctx, fresh); err != nil {
		return time.Time{}, false, true, err
	}
	if err := m.gw.InsertMatch(ctx, bundle.Match); err != nil {
		return time.Time{}, false, true, err
	}
	if err := m.gw.InsertStats(ctx, bundle.Stats); err != nil {
		return time.Time{}, false, true, err
	}
	return bundle.Match.MatchStart, true, true, nil
}

// filterStaleObservations drops participant observations for players whose
// stored cursor already covers this match: the display identity refreshes
// only when the match started strictly after the stored cursor.
func (m *Match) filterStaleObservations(ctx context.Context, bundle *transform.MatchBundle) ([]database.PlayerRecord, error) {
	fresh := make([]database.PlayerRecord, 0, len(bundle.Players))
	for _, p := range bundle.Players {
		existing, err := m.gw.GetPlayer(ctx, p.PUUID)
		if err != nil {
			return nil, err
		}
		if existing != nil && !bundle.Match.MatchStart.After(existing.LastMatchFetch) {
			continue
		}
		fresh = append(fresh, p)
	}
	return fresh, nil
}

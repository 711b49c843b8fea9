// Package crawler implements the two harvest workers: the per-sub-region
// ladder crawler and the per-main-region match crawler.
package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gustavo-Feijo/league-crawler/internal/database"
	"github.com/Gustavo-Feijo/league-crawler/internal/regions"
	"github.com/Gustavo-Feijo/league-crawler/internal/telemetry"
	"github.com/Gustavo-Feijo/league-crawler/internal/transform"
)

// Ladder walks one sub-region's ranked ladder: the three high-elo brackets
// first, then every standard tier/division page by page. It also performs
// the one-time bootstrap hand-off that unblocks the region's match crawler.
type Ladder struct {
	sub    regions.SubRegion
	client LadderAPI
	gw     database.Gateway
	signal *Signal
	logger *zap.Logger
	now    func() time.Time
}

// NewLadder constructs a ladder crawler for one sub-region.
func NewLadder(sub regions.SubRegion, client LadderAPI, gw database.Gateway, signal *Signal, logger *zap.Logger) *Ladder {
	return &Ladder{
		sub:    sub,
		client: client,
		gw:     gw,
		signal: signal,
		logger: logger,
		now:    time.Now,
	}
}

// Sweep performs one full ladder pass. Any fetch, transform or persistence
// error aborts the sweep; the supervisor decides when to run the next one.
func (l *Ladder) Sweep(ctx context.Context) error {
	log := l.logger.With(
		zap.String("sweep_id", uuid.NewString()),
		zap.String("region", string(l.sub)),
	)

	for _, bracket := range Brackets {
		if err := l.sweepBracket(ctx, bracket, log); err != nil {
			return err
		}
	}
	for _, tier := range Tiers {
		log.Debug("sweeping tier", zap.String("tier", tier))
		for _, division := range Divisions {
			if err := l.sweepDivision(ctx, tier, division); err != nil {
				return err
			}
		}
	}
	log.Info("ladder sweep finished")
	return nil
}

func (l *Ladder) sweepBracket(ctx context.Context, bracket string, log *zap.Logger) error {
	list, err := l.client.LeagueList(ctx, l.sub, bracket)
	if err != nil {
		return fmt.Errorf("bracket %s: %w", bracket, err)
	}
	fresh, err := l.filterChanged(ctx, transform.RatingsFromLeague(list, l.sub, l.now().UTC()))
	if err != nil {
		return fmt.Errorf("bracket %s: %w", bracket, err)
	}
	if err := l.gw.InsertRatings(ctx, fresh); err != nil {
		return fmt.Errorf("bracket %s: %w", bracket, err)
	}
	return l.maybeBootstrap(ctx, fresh, log)
}

func (l *Ladder) sweepDivision(ctx context.Context, tier, division string) error {
	for page := 1; ; page++ {
		entries, err := l.client.LeagueEntries(ctx, l.sub, tier, division, page)
		if err != nil {
			return fmt.Errorf("%s %s page %d: %w", tier, division, page, err)
		}
		if len(entries) == 0 {
			return nil
		}
		fresh, err := l.filterChanged(ctx, transform.RatingsFromEntries(entries, l.sub, l.now().UTC()))
		if err != nil {
			return fmt.Errorf("%s %s page %d: %w", tier, division, page, err)
		}
		if err := l.gw.InsertRatings(ctx, fresh); err != nil {
			return fmt.Errorf("%s %s page %d: %w", tier, division, page, err)
		}
	}
}

// filterChanged drops candidates whose latest stored snapshot already
// carries the same points, wins and losses, making repeat sweeps idempotent.
func (l *Ladder) filterChanged(ctx context.Context, candidates []database.RatingRecord) ([]database.RatingRecord, error) {
	fresh := make([]database.RatingRecord, 0, len(candidates))
	for _, c := range candidates {
		latest, err := l.gw.LatestRatingFor(ctx, c.SummonerID)
		if err != nil {
			return nil, err
		}
		if latest != nil && latest.Same(c) {
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh, nil
}

// maybeBootstrap seeds starting-point players the first time a sub-region
// shows up empty, then latches the main region's readiness signal. Once any
// player exists for this region the signal is latched without reseeding.
func (l *Ladder) maybeBootstrap(ctx context.Context, fresh []database.RatingRecord, log *zap.Logger) error {
	has, err := l.gw.RegionHasAnyPlayer(ctx, string(l.sub))
	if err != nil {
		return fmt.Errorf("bootstrap check: %w", err)
	}
	if has {
		l.signal.Set()
		return nil
	}
	if len(fresh) == 0 {
		return nil
	}

	players := make([]database.PlayerRecord, 0, len(fresh))
	for _, r := range fresh {
		s, err := l.client.SummonerByID(ctx, l.sub, r.SummonerID)
		if err != nil {
			return fmt.Errorf("bootstrap summoner %s: %w", r.SummonerID, err)
		}
		players = append(players, transform.BootstrapPlayer(s, l.sub))
	}
	if err := l.gw.UpsertPlayers(ctx, players); err != nil {
		return fmt.Errorf("bootstrap insert: %w", err)
	}
	telemetry.AddInserted("bootstrap_players", len(players))
	l.signal.Set()
	log.Info("bootstrap players seeded", zap.Int("count", len(players)))
	return nil
}

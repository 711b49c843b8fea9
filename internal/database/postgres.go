package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Gustavo-Feijo/league-crawler/internal/telemetry"
)

// PostgresConfig controls the pgx connection pool.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the slice of pgxpool.Pool the store uses, kept as an interface so
// pgxmock can stand in during tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Postgres implements Gateway on PostgreSQL.
//
// Expected schema (managed outside the crawler):
//
//	players  (id BIGSERIAL PK, puuid TEXT UNIQUE NOT NULL, summoner_id TEXT,
//	          game_name TEXT, tag_line TEXT, summoner_level INT,
//	          profile_icon_id INT, region TEXT,
//	          last_match_fetch TIMESTAMPTZ NOT NULL)
//	ratings  (id BIGSERIAL PK, tier TEXT, rank TEXT, summoner_id TEXT,
//	          league_points INT, wins INT, losses INT, region TEXT,
//	          fetch_time TIMESTAMPTZ NOT NULL)
//	matches  (id BIGSERIAL PK, game_version TEXT, match_id TEXT UNIQUE,
//	          match_start TIMESTAMPTZ, match_duration INT, match_winner BOOL,
//	          match_surrender BOOL, match_remake BOOL)
//	stats    (id BIGSERIAL PK, player_id BIGINT REFERENCES players,
//	          match_id BIGINT REFERENCES matches, ..., UNIQUE (match_id, player_id))
//
// Uniqueness lives in the store: concurrent workers racing the same insert
// land on ON CONFLICT DO NOTHING instead of a constraint failure.
type Postgres struct {
	pool   pool
	logger *zap.Logger
}

var _ Gateway = (*Postgres)(nil)

// NewPostgres connects a pool and verifies it with a ping.
func NewPostgres(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: p, logger: logger}, nil
}

// NewPostgresWithPool constructs a store from an existing pool (primarily
// for testing).
func NewPostgresWithPool(p pool, logger *zap.Logger) (*Postgres, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{pool: p, logger: logger}, nil
}

// Close releases the underlying pool resources.
func (s *Postgres) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const playerColumns = `puuid, summoner_id, game_name, tag_line, summoner_level, profile_icon_id, region, last_match_fetch`

func scanPlayer(row pgx.Row) (*PlayerRecord, error) {
	var p PlayerRecord
	err := row.Scan(
		&p.PUUID,
		&p.SummonerID,
		&p.GameName,
		&p.TagLine,
		&p.SummonerLevel,
		&p.ProfileIconID,
		&p.Region,
		&p.LastMatchFetch,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// NextCursorPlayer returns the least recently harvested player among the
// given sub-regions, or nil when the regions are empty.
func (s *Postgres) NextCursorPlayer(ctx context.Context, subRegions []string) (*PlayerRecord, error) {
	query := `
SELECT ` + playerColumns + `
FROM players
WHERE region = ANY($1)
ORDER BY last_match_fetch ASC
LIMIT 1`
	p, err := scanPlayer(s.pool.QueryRow(ctx, query, subRegions))
	if err != nil {
		return nil, &PersistenceError{Op: "next cursor player", Err: err}
	}
	return p, nil
}

// GetPlayer returns the stored record for a puuid, or nil when unseen.
func (s *Postgres) GetPlayer(ctx context.Context, puuid string) (*PlayerRecord, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE puuid = $1`
	p, err := scanPlayer(s.pool.QueryRow(ctx, query, puuid))
	if err != nil {
		return nil, &PersistenceError{Op: "get player", Err: err}
	}
	return p, nil
}

// MatchExists is the dedup gate consulted before any match-detail fetch.
func (s *Postgres) MatchExists(ctx context.Context, matchID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM matches WHERE match_id = $1)`, matchID,
	).Scan(&exists)
	if err != nil {
		return false, &PersistenceError{Op: "match exists", Err: err}
	}
	return exists, nil
}

// RegionHasAnyPlayer reports whether a sub-region already has a bootstrap
// player.
func (s *Postgres) RegionHasAnyPlayer(ctx context.Context, region string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM players WHERE region = $1)`, region,
	).Scan(&exists)
	if err != nil {
		return false, &PersistenceError{Op: "region has any player", Err: err}
	}
	return exists, nil
}

// LatestRatingFor returns the newest stored snapshot for a summoner.
func (s *Postgres) LatestRatingFor(ctx context.Context, summonerID string) (*RatingRecord, error) {
	var r RatingRecord
	err := s.pool.QueryRow(ctx, `
SELECT tier, rank, summoner_id, league_points, wins, losses, region, fetch_time
FROM ratings
WHERE summoner_id = $1
ORDER BY fetch_time DESC
LIMIT 1`, summonerID).Scan(
		&r.Tier,
		&r.Rank,
		&r.SummonerID,
		&r.LeaguePoints,
		&r.Wins,
		&r.Losses,
		&r.Region,
		&r.FetchTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "latest rating", Err: err}
	}
	return &r, nil
}

// UpsertPlayers writes a batch of players in one transaction. New puuids are
// inserted with their cursor; known puuids only refresh display identity,
// and the stored cursor is left untouched so it can never regress.
func (s *Postgres) UpsertPlayers(ctx context.Context, players []PlayerRecord) error {
	if len(players) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &PersistenceError{Op: "upsert players begin", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
INSERT INTO players (` + playerColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (puuid) DO UPDATE SET
	summoner_id = EXCLUDED.summoner_id,
	game_name = EXCLUDED.game_name,
	tag_line = EXCLUDED.tag_line,
	summoner_level = EXCLUDED.summoner_level,
	profile_icon_id = EXCLUDED.profile_icon_id,
	region = EXCLUDED.region`
	var written int64
	for _, p := range players {
		cursor := p.LastMatchFetch
		if cursor.IsZero() {
			cursor = DefaultCursor
		}
		tag, err := tx.Exec(ctx, query,
			p.PUUID,
			p.SummonerID,
			p.GameName,
			p.TagLine,
			p.SummonerLevel,
			p.ProfileIconID,
			p.Region,
			cursor,
		)
		if err != nil {
			return &PersistenceError{Op: "upsert players", Err: err}
		}
		written += tag.RowsAffected()
	}
	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Op: "upsert players commit", Err: err}
	}
	telemetry.AddInserted("players", int(written))
	return nil
}

// InsertMatch writes one match row. A concurrent duplicate is a no-op and
// does not count as an inserted record.
func (s *Postgres) InsertMatch(ctx context.Context, m MatchRecord) error {
	tag, err := s.pool.Exec(ctx, `
INSERT INTO matches (game_version, match_id, match_start, match_duration, match_winner, match_surrender, match_remake)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (match_id) DO NOTHING`,
		m.GameVersion,
		m.MatchID,
		m.MatchStart,
		m.MatchDuration,
		m.MatchWinner,
		m.MatchSurrender,
		m.MatchRemake,
	)
	if err != nil {
		return &PersistenceError{Op: "insert match", Err: err}
	}
	telemetry.AddInserted("matches", int(tag.RowsAffected()))
	return nil
}

// InsertStats writes the per-player rows of one match, resolving the
// internal player and match keys from the external ids.
func (s *Postgres) InsertStats(ctx context.Context, stats []StatRecord) error {
	if len(stats) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &PersistenceError{Op: "insert stats begin", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
INSERT INTO stats (
	player_id, match_id, champion_id,
	kills, deaths, assists,
	gold_earned, gold_spent, total_damage,
	item0, item1, item2, item3, item4, item5, item6,
	defense, flex, offense,
	rune_tree, main0, main1, main2, main3, sub_tree, sub1, sub2,
	spell1, spell2,
	neutral_minions_killed, total_minions_killed, total_cs, cs_per_min,
	vision_score, control_wards_placed, wards_placed, wards_killed,
	team_position, team
)
SELECT p.id, m.id, $3,
	$4, $5, $6,
	$7, $8, $9,
	$10, $11, $12, $13, $14, $15, $16,
	$17, $18, $19,
	$20, $21, $22, $23, $24, $25, $26, $27,
	$28, $29,
	$30, $31, $32, $33,
	$34, $35, $36, $37,
	$38, $39
FROM players p, matches m
WHERE p.puuid = $1 AND m.match_id = $2
ON CONFLICT (match_id, player_id) DO NOTHING`
	var written int64
	for _, st := range stats {
		tag, err := tx.Exec(ctx, query,
			st.PUUID, st.MatchID, st.ChampionID,
			st.Kills, st.Deaths, st.Assists,
			st.GoldEarned, st.GoldSpent, st.TotalDamage,
			st.Item0, st.Item1, st.Item2, st.Item3, st.Item4, st.Item5, st.Item6,
			st.Defense, st.Flex, st.Offense,
			st.RuneTree, st.Main0, st.Main1, st.Main2, st.Main3, st.SubTree, st.Sub1, st.Sub2,
			st.Spell1, st.Spell2,
			st.NeutralMinionsKilled, st.TotalMinionsKilled, st.TotalCs, st.CsPerMin,
			st.VisionScore, st.ControlWardsPlaced, st.WardsPlaced, st.WardsKilled,
			st.TeamPosition, st.Team,
		)
		if err != nil {
			return &PersistenceError{Op: "insert stats", Err: err}
		}
		written += tag.RowsAffected()
	}
	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Op: "insert stats commit", Err: err}
	}
	telemetry.AddInserted("stats", int(written))
	return nil
}

// InsertRatings appends snapshots in one transaction.
func (s *Postgres) InsertRatings(ctx context.Context, ratings []RatingRecord) error {
	if len(ratings) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &PersistenceError{Op: "insert ratings begin", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
INSERT INTO ratings (tier, rank, summoner_id, league_points, wins, losses, region, fetch_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, r := range ratings {
		if _, err := tx.Exec(ctx, query,
			r.Tier,
			r.Rank,
			r.SummonerID,
			r.LeaguePoints,
			r.Wins,
			r.Losses,
			r.Region,
			r.FetchTime,
		); err != nil {
			return &PersistenceError{Op: "insert ratings", Err: err}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Op: "insert ratings commit", Err: err}
	}
	telemetry.AddInserted("ratings", len(ratings))
	return nil
}

// AdvanceCursor moves a player's cursor forward. GREATEST keeps the cursor
// monotonic even if a caller hands in an older timestamp.
func (s *Postgres) AdvanceCursor(ctx context.Context, puuid string, ts time.Time) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE players
SET last_match_fetch = GREATEST(last_match_fetch, $2)
WHERE puuid = $1`, puuid, ts)
	if err != nil {
		return &PersistenceError{Op: "advance cursor", Err: err}
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn("advance cursor matched no player", zap.String("puuid", puuid))
	}
	return nil
}

// Package database defines the persistence boundary consumed by the
// crawlers. The interface keeps the workers decoupled from Postgres so tests
// can run against an in-memory gateway.
package database

import (
	"context"
	"fmt"
	"time"
)

// DefaultCursor is the stale fetch cursor assigned to bootstrap players, far
// enough in the past that their whole recent history gets harvested first.
var DefaultCursor = time.Date(2024, time.May, 1, 0, 0, 1, 0, time.UTC)

// PlayerRecord is one row of the players table. PUUID is the external
// identity; LastMatchFetch is the harvest cursor and only ever moves forward.
type PlayerRecord struct {
	PUUID          string
	SummonerID     string
	GameName       string
	TagLine        string
	SummonerLevel  int
	ProfileIconID  int
	Region         string
	LastMatchFetch time.Time
}

// RatingRecord is one immutable ladder snapshot.
type RatingRecord struct {
	Tier         string
	Rank         string
	SummonerID   string
	LeaguePoints int
	Wins         int
	Losses       int
	Region       string
	FetchTime    time.Time
}

// Same reports whether two snapshots carry identical standings, the dedup
// rule applied before writing a new snapshot.
func (r RatingRecord) Same(other RatingRecord) bool {
	return r.LeaguePoints == other.LeaguePoints &&
		r.Wins == other.Wins &&
		r.Losses == other.Losses
}

// MatchRecord is one immutable match row, keyed externally by MatchID.
type MatchRecord struct {
	GameVersion    string
	MatchID        string
	MatchStart     time.Time
	MatchDuration  int
	MatchWinner    bool
	MatchSurrender bool
	MatchRemake    bool
}

// StatRecord is one (match, player) row. It references its parents by
// external id; the store resolves internal keys at insert time.
type StatRecord struct {
	PUUID   string
	MatchID string

	ChampionID int
	Kills      int
	Deaths     int
	Assists    int

	GoldEarned  int
	GoldSpent   int
	TotalDamage int

	Item0 int
	Item1 int
	Item2 int
	Item3 int
	Item4 int
	Item5 int
	Item6 int

	Defense  int
	Flex     int
	Offense  int
	RuneTree int
	Main0    int
	Main1    int
	Main2    int
	Main3    int
	SubTree  int
	Sub1     int
	Sub2     int

	Spell1 int
	Spell2 int

	NeutralMinionsKilled int
	TotalMinionsKilled   int
	TotalCs              int
	CsPerMin             float64

	VisionScore        int
	ControlWardsPlaced int
	WardsPlaced        int
	WardsKilled        int

	TeamPosition string
	Team         bool
}

// Gateway is the persistence surface the crawlers coordinate through. Every
// call is atomic; batch inserts are all-or-nothing for that batch.
type Gateway interface {
	// NextCursorPlayer returns the player with the oldest fetch cursor among
	// the given sub-regions, or nil when none is registered yet.
	NextCursorPlayer(ctx context.Context, subRegions []string) (*PlayerRecord, error)

	// GetPlayer returns the stored player for a puuid, or nil when unseen.
	GetPlayer(ctx context.Context, puuid string) (*PlayerRecord, error)

	// MatchExists reports whether a match id has already been harvested.
	MatchExists(ctx context.Context, matchID string) (bool, error)

	// RegionHasAnyPlayer reports whether a sub-region has been bootstrapped.
	RegionHasAnyPlayer(ctx context.Context, region string) (bool, error)

	// LatestRatingFor returns the most recent snapshot for a summoner, or
	// nil when no history exists.
	LatestRatingFor(ctx context.Context, summonerID string) (*RatingRecord, error)

	// UpsertPlayers creates unseen players and refreshes display fields of
	// known ones. It never touches an existing player's fetch cursor.
	UpsertPlayers(ctx context.Context, players []PlayerRecord) error

	// InsertMatch writes one match row; a duplicate match id is a no-op.
	InsertMatch(ctx context.Context, match MatchRecord) error

	// InsertStats writes the per-player rows of one match. Parents must
	// already be persisted.
	InsertStats(ctx context.Context, stats []StatRecord) error

	// InsertRatings appends ladder snapshots.
	InsertRatings(ctx context.Context, ratings []RatingRecord) error

	// AdvanceCursor moves a player's fetch cursor forward, never backward.
	AdvanceCursor(ctx context.Context, puuid string, ts time.Time) error

	// Close releases the underlying resources.
	Close()
}

// PersistenceError reports a store write the crawler could not complete.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

package crawler

import (
	"context"
	"time"

	"github.com/Gustavo-Feijo/league-crawler/internal/regions"
	"github.com/Gustavo-Feijo/league-crawler/internal/riot"
)

// Brackets are the high-elo tiers fetched as single lists instead of paged
// divisions, in fetch order.
var Brackets = []string{"challenger", "grandmaster", "master"}

// Tiers are the paged standard tiers, highest first.
var Tiers = []string{"DIAMOND", "EMERALD", "PLATINUM", "GOLD", "SILVER", "BRONZE", "IRON"}

// Divisions are the per-tier divisions, highest first.
var Divisions = []string{"I", "II", "III", "IV"}

// LadderAPI is the slice of the Riot client the ladder crawler consumes.
type LadderAPI interface {
	LeagueList(ctx context.Context, sub regions.SubRegion, bracket string) (*riot.LeagueList, error)
	LeagueEntries(ctx context.Context, sub regions.SubRegion, tier, division string, page int) ([]riot.LeagueEntry, error)
	SummonerByID(ctx context.Context, sub regions.SubRegion, summonerID string) (*riot.Summoner, error)
}

// MatchAPI is the slice of the Riot client the match crawler consumes.
type MatchAPI interface {
	MatchIDs(ctx context.Context, main regions.MainRegion, puuid string, startTime time.Time, start, count int) ([]string, error)
	MatchByID(ctx context.Context, main regions.MainRegion, matchID string) (*riot.Match, error)
}

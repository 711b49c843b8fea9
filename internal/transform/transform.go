// Package transform maps raw Riot API payloads into normalized store
// records. Every function here is pure; dedup decisions against stored
// history belong to the crawlers.
package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/Gustavo-Feijo/league-crawler/internal/database"
	"github.com/Gustavo-Feijo/league-crawler/internal/regions"
	"github.com/Gustavo-Feijo/league-crawler/internal/riot"
)

// abortedResult marks a match that never completed; such payloads yield no
// records at all.
const abortedResult = "Abort_Unexpected"

// redTeamID is the fixed identifier of the red side. Team side is stored as
// a bool: false for blue (100), true for red (200).
const redTeamID = 200

// TransformError reports a payload missing fields the mapping requires.
// It is terminal for the single match being processed, not for the batch.
type TransformError struct {
	MatchID string
	Reason  string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform match %q: %s", e.MatchID, e.Reason)
}

// MatchBundle is everything one match payload normalizes into.
type MatchBundle struct {
	Match   database.MatchRecord
	Players []database.PlayerRecord
	Stats   []database.StatRecord
}

// RatingsFromEntries maps one page of a paged tier/division listing into
// snapshot records, each entry carrying its own tier.
func RatingsFromEntries(entries []riot.LeagueEntry, region regions.SubRegion, now time.Time) []database.RatingRecord {
	out := make([]database.RatingRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, ratingRecord(e, e.Tier, region, now))
	}
	return out
}

// RatingsFromLeague maps a high-elo bracket payload into snapshot records,
// tagging every entry with the list-level tier.
func RatingsFromLeague(list *riot.LeagueList, region regions.SubRegion, now time.Time) []database.RatingRecord {
	out := make([]database.RatingRecord, 0, len(list.Entries))
	for _, e := range list.Entries {
		out = append(out, ratingRecord(e, list.Tier, region, now))
	}
	return out
}

func ratingRecord(e riot.LeagueEntry, tier string, region regions.SubRegion, now time.Time) database.RatingRecord {
	return database.RatingRecord{
		Tier:         tier,
		Rank:         e.Rank,
		SummonerID:   e.SummonerID,
		LeaguePoints: e.LeaguePoints,
		Wins:         e.Wins,
		Losses:       e.Losses,
		Region:       string(region),
		FetchTime:    now,
	}
}

// BootstrapPlayer maps a resolved summoner identity into a starting-point
// player with the default stale cursor.
func BootstrapPlayer(s *riot.Summoner, region regions.SubRegion) database.PlayerRecord {
	return database.PlayerRecord{
		PUUID:          s.PUUID,
		SummonerID:     s.ID,
		SummonerLevel:  s.SummonerLevel,
		ProfileIconID:  s.ProfileIconID,
		Region:         string(region),
		LastMatchFetch: database.DefaultCursor,
	}
}

// MatchFromPayload normalizes one match-detail payload. An aborted game
// yields (nil, nil): no partial rows are ever produced for it.
func MatchFromPayload(m *riot.Match) (*MatchBundle, error) {
	id := m.Metadata.MatchID
	if id == "" {
		return nil, &TransformError{Reason: "missing metadata.matchId"}
	}
	if m.Info.EndOfGameResult == abortedResult {
		return nil, nil
	}
	if len(m.Info.Participants) == 0 {
		return nil, &TransformError{MatchID: id, Reason: "no participants"}
	}
	if len(m.Info.Teams) == 0 {
		return nil, &TransformError{MatchID: id, Reason: "no teams"}
	}
	if m.Info.GameDuration <= 0 {
		return nil, &TransformError{MatchID: id, Reason: "non-positive gameDuration"}
	}
	if m.Info.GameCreation <= 0 {
		return nil, &TransformError{MatchID: id, Reason: "missing gameCreation"}
	}

	first := m.Info.Participants[0]
	match := database.MatchRecord{
		GameVersion:   m.Info.GameVersion,
		MatchID:       id,
		MatchStart:    time.UnixMilli(m.Info.GameCreation).UTC(),
		MatchDuration: int(m.Info.GameDuration),
		// The winning side is whichever team the first team slot lost to.
		MatchWinner:    !m.Info.Teams[0].Win,
		MatchSurrender: first.GameEndedInSurrender,
		MatchRemake:    first.GameEndedInEarlySurrender,
	}

	region := strings.ToLower(m.Info.PlatformID)
	players := make([]database.PlayerRecord, 0, len(m.Info.Participants))
	stats := make([]database.StatRecord, 0, len(m.Info.Participants))
	for i, p := range m.Info.Participants {
		if p.PUUID == "" {
			return nil, &TransformError{MatchID: id, Reason: fmt.Sprintf("participant %d missing puuid", i)}
		}
		players = append(players, database.PlayerRecord{
			PUUID:         p.PUUID,
			SummonerID:    p.SummonerID,
			GameName:      p.RiotIDGameName,
			TagLine:       p.RiotIDTagline,
			SummonerLevel: p.SummonerLevel,
			ProfileIconID: p.ProfileIcon,
			Region:        region,
		})
		st, err := statRecord(id, m.Info.GameDuration, p)
		if err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}

	return &MatchBundle{Match: match, Players: players, Stats: stats}, nil
}

func statRecord(matchID string, duration int64, p riot.Participant) (database.StatRecord, error) {
	if len(p.Perks.Styles) < 2 {
		return database.StatRecord{}, &TransformError{MatchID: matchID, Reason: "missing perk styles"}
	}
	primary, secondary := p.Perks.Styles[0], p.Perks.Styles[1]
	if len(primary.Selections) < 4 || len(secondary.Selections) < 2 {
		return database.StatRecord{}, &TransformError{MatchID: matchID, Reason: "short perk selections"}
	}

	totalCs := p.TotalMinionsKilled + p.NeutralMinionsKilled
	return database.StatRecord{
		PUUID:   p.PUUID,
		MatchID: matchID,

		ChampionID: p.ChampionID,
		Kills:      p.Kills,
		Deaths:     p.Deaths,
		Assists:    p.Assists,

		GoldEarned:  p.GoldEarned,
		GoldSpent:   p.GoldSpent,
		TotalDamage: p.TotalDamageDealtToChampions,

		Item0: p.Item0,
		Item1: p.Item1,
		Item2: p.Item2,
		Item3: p.Item3,
		Item4: p.Item4,
		Item5: p.Item5,
		Item6: p.Item6,

		Defense:  p.Perks.StatPerks.Defense,
		Flex:     p.Perks.StatPerks.Flex,
		Offense:  p.Perks.StatPerks.Offense,
		RuneTree: primary.Style,
		Main0:    primary.Selections[0].Perk,
		Main1:    primary.Selections[1].Perk,
		Main2:    primary.Selections[2].Perk,
		Main3:    primary.Selections[3].Perk,
		SubTree:  secondary.Style,
		Sub1:     secondary.Selections[0].Perk,
		Sub2:     secondary.Selections[1].Perk,

		Spell1: p.Summoner1ID,
		Spell2: p.Summoner2ID,

		NeutralMinionsKilled: p.NeutralMinionsKilled,
		TotalMinionsKilled:   p.TotalMinionsKilled,
		TotalCs:              totalCs,
		CsPerMin:             float64(totalCs) / (float64(duration) / 60.0),

		VisionScore:        p.VisionScore,
		ControlWardsPlaced: p.Challenges.ControlWardsPlaced,
		WardsPlaced:        p.WardsPlaced,
		WardsKilled:        p.WardsKilled,

		TeamPosition: p.TeamPosition,
		Team:         p.TeamID == redTeamID,
	}, nil
}

package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gustavo-Feijo/league-crawler/internal/database"
	"github.com/Gustavo-Feijo/league-crawler/internal/riot"
)

func validParticipant(puuid string, teamID int) riot.Participant {
	return riot.Participant{
		PUUID:          puuid,
		SummonerID:     "summoner-" + puuid,
		RiotIDGameName: "Player " + puuid,
		RiotIDTagline:  "BR1",
		ProfileIcon:    12,
		SummonerLevel:  230,
		ChampionID:     64,
		Kills:          5, Deaths: 3, Assists: 11,
		GoldEarned: 12500, GoldSpent: 11800,
		TotalDamageDealtToChampions: 24300,
		Item0:                       3078,
		Item6:                       3363,
		Perks: riot.Perks{
			StatPerks: riot.StatPerks{Defense: 5002, Flex: 5008, Offense: 5005},
			Styles: []riot.PerkStyle{
				{Style: 8000, Selections: []riot.PerkSelection{{Perk: 8010}, {Perk: 9111}, {Perk: 9104}, {Perk: 8014}}},
				{Style: 8400, Selections: []riot.PerkSelection{{Perk: 8444}, {Perk: 8453}}},
			},
		},
		Summoner1ID: 4, Summoner2ID: 14,
		NeutralMinionsKilled: 60,
		TotalMinionsKilled:   180,
		VisionScore:          32,
		WardsPlaced:          14, WardsKilled: 6,
		Challenges:   riot.Challenges{ControlWardsPlaced: 4},
		TeamPosition: "JUNGLE",
		TeamID:       teamID,
	}
}

func validMatch() *riot.Match {
	return &riot.Match{
		Metadata: riot.MatchMetadata{MatchID: "BR1_123456"},
		Info: riot.MatchInfo{
			EndOfGameResult: "GameComplete",
			GameVersion:     "14.10.1",
			GameCreation:    1715000000000,
			GameDuration:    1800,
			PlatformID:      "BR1",
			Teams: []riot.Team{
				{TeamID: 100, Win: false},
				{TeamID: 200, Win: true},
			},
			Participants: []riot.Participant{
				validParticipant("p1", 100),
				validParticipant("p2", 200),
			},
		},
	}
}

func TestMatchFromPayload(t *testing.T) {
	t.Parallel()

	bundle, err := MatchFromPayload(validMatch())
	require.NoError(t, err)
	require.NotNil(t, bundle)

	assert.Equal(t, "BR1_123456", bundle.Match.MatchID)
	assert.Equal(t, time.UnixMilli(1715000000000).UTC(), bundle.Match.MatchStart)
	assert.Equal(t, 1800, bundle.Match.MatchDuration)
	assert.True(t, bundle.Match.MatchWinner, "first team slot lost, so the red side won")
	assert.False(t, bundle.Match.MatchSurrender)
	assert.False(t, bundle.Match.MatchRemake)

	require.Len(t, bundle.Players, 2)
	assert.Equal(t, "br1", bundle.Players[0].Region, "region tag is normalized to lower case")
	assert.True(t, bundle.Players[0].LastMatchFetch.IsZero(), "participant observations carry no cursor")

	require.Len(t, bundle.Stats, 2)
	st := bundle.Stats[0]
	assert.Equal(t, 240, st.TotalCs)
	assert.InDelta(t, 8.0, st.CsPerMin, 1e-9)
	assert.Equal(t, 8010, st.Main0)
	assert.Equal(t, 8444, st.Sub1)
	assert.False(t, st.Team, "team id 100 is the blue side")
	assert.True(t, bundle.Stats[1].Team, "team id 200 is the red side")
}

func TestMatchFromPayloadAbortedGame(t *testing.T) {
	t.Parallel()

	m := validMatch()
	m.Info.EndOfGameResult = "Abort_Unexpected"

	bundle, err := MatchFromPayload(m)
	require.NoError(t, err)
	assert.Nil(t, bundle, "aborted games yield no records at all")
}

func TestMatchFromPayloadValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*riot.Match)
	}{
		{"missing match id", func(m *riot.Match) { m.Metadata.MatchID = "" }},
		{"no participants", func(m *riot.Match) { m.Info.Participants = nil }},
		{"no teams", func(m *riot.Match) { m.Info.Teams = nil }},
		{"zero duration", func(m *riot.Match) { m.Info.GameDuration = 0 }},
		{"missing creation", func(m *riot.Match) { m.Info.GameCreation = 0 }},
		{"participant without puuid", func(m *riot.Match) { m.Info.Participants[1].PUUID = "" }},
		{"missing perk styles", func(m *riot.Match) { m.Info.Participants[0].Perks.Styles = nil }},
		{"short primary selections", func(m *riot.Match) {
			m.Info.Participants[0].Perks.Styles[0].Selections = m.Info.Participants[0].Perks.Styles[0].Selections[:2]
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := validMatch()
			tc.mutate(m)

			bundle, err := MatchFromPayload(m)
			assert.Nil(t, bundle)

			var te *TransformError
			require.ErrorAs(t, err, &te)
		})
	}
}

func TestRatingsFromLeagueTagsListTier(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	list := &riot.LeagueList{
		Tier: "CHALLENGER",
		Entries: []riot.LeagueEntry{
			{SummonerID: "s1", Rank: "I", LeaguePoints: 1200, Wins: 300, Losses: 200},
			{SummonerID: "s2", Rank: "I", LeaguePoints: 1100, Wins: 250, Losses: 180},
		},
	}

	got := RatingsFromLeague(list, "br1", now)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "CHALLENGER", r.Tier)
		assert.Equal(t, "br1", r.Region)
		assert.Equal(t, now, r.FetchTime)
	}
}

func TestRatingsFromEntriesKeepsEntryTier(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	entries := []riot.LeagueEntry{
		{SummonerID: "s1", Tier: "GOLD", Rank: "IV", LeaguePoints: 55, Wins: 40, Losses: 38},
	}

	got := RatingsFromEntries(entries, "euw1", now)
	require.Len(t, got, 1)
	assert.Equal(t, "GOLD", got[0].Tier)
	assert.Equal(t, "IV", got[0].Rank)
	assert.Equal(t, 55, got[0].LeaguePoints)
}

func TestBootstrapPlayerCarriesStaleCursor(t *testing.T) {
	t.Parallel()

	p := BootstrapPlayer(&riot.Summoner{
		ID:            "sum-1",
		PUUID:         "puuid-1",
		ProfileIconID: 7,
		SummonerLevel: 120,
	}, "kr")

	assert.Equal(t, "puuid-1", p.PUUID)
	assert.Equal(t, "sum-1", p.SummonerID)
	assert.Equal(t, "kr", p.Region)
	assert.Equal(t, database.DefaultCursor, p.LastMatchFetch)
}

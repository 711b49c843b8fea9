package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Gustavo-Feijo/league-crawler/internal/database"
	"github.com/Gustavo-Feijo/league-crawler/internal/database/memory"
	"github.com/Gustavo-Feijo/league-crawler/internal/regions"
	"github.com/Gustavo-Feijo/league-crawler/internal/riot"
)

// fakeLadderAPI serves canned league payloads. Brackets and tier/division
// pages not present in the maps come back empty, which is how a real ladder
// sweep terminates.
type fakeLadderAPI struct {
	mu            sync.Mutex
	lists         map[string]*riot.LeagueList     // by bracket
	pages         map[string][][]riot.LeagueEntry // by "TIER/DIV"
	entriesErr    map[string]error                // by "TIER/DIV"
	pageRequests  map[string][]int
	summonerCalls int
}

func (f *fakeLadderAPI) LeagueList(_ context.Context, _ regions.SubRegion, bracket string) (*riot.LeagueList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.lists[bracket]; ok {
		return l, nil
	}
	return &riot.LeagueList{Tier: strings.ToUpper(bracket)}, nil
}

func (f *fakeLadderAPI) LeagueEntries(_ context.Context, _ regions.SubRegion, tier, division string, page int) ([]riot.LeagueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := tier + "/" + division
	if f.pageRequests == nil {
		f.pageRequests = make(map[string][]int)
	}
	f.pageRequests[key] = append(f.pageRequests[key], page)
	if err := f.entriesErr[key]; err != nil {
		return nil, err
	}
	pages := f.pages[key]
	if page <= len(pages) {
		return pages[page-1], nil
	}
	return nil, nil
}

func (f *fakeLadderAPI) SummonerByID(_ context.Context, _ regions.SubRegion, summonerID string) (*riot.Summoner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summonerCalls++
	return &riot.Summoner{
		ID:            summonerID,
		PUUID:         "puuid-" + summonerID,
		ProfileIconID: 1,
		SummonerLevel: 100,
	}, nil
}

func entry(id string, lp int) riot.LeagueEntry {
	return riot.LeagueEntry{SummonerID: id, Rank: "I", LeaguePoints: lp, Wins: lp, Losses: lp / 2}
}

func newTestLadder(api *fakeLadderAPI, gw database.Gateway, sig *Signal) *Ladder {
	return NewLadder("br1", api, gw, sig, zap.NewNop())
}

func TestSweepBootstrapsEmptyRegion(t *testing.T) {
	t.Parallel()
	api := &fakeLadderAPI{
		lists: map[string]*riot.LeagueList{
			"challenger": {Tier: "CHALLENGER", Entries: []riot.LeagueEntry{entry("s1", 1200), entry("s2", 1100)}},
		},
	}
	gw := memory.New()
	sig := NewSignal()

	require.NoError(t, newTestLadder(api, gw, sig).Sweep(context.Background()))

	assert.True(t, sig.IsSet(), "bootstrap latches the readiness signal")
	assert.Equal(t, 2, api.summonerCalls)

	players := gw.Players()
	require.Len(t, players, 2)
	for _, p := range players {
		assert.Equal(t, "br1", p.Region)
		assert.Equal(t, database.DefaultCursor, p.LastMatchFetch, "seeds start from the stale default cursor")
	}
	assert.Len(t, gw.Ratings(), 2)
}

func TestSweepSkipsBootstrapWhenRegionPopulated(t *testing.T) {
	t.Parallel()
	api := &fakeLadderAPI{
		lists: map[string]*riot.LeagueList{
			"challenger": {Tier: "CHALLENGER", Entries: []riot.LeagueEntry{entry("s1", 1200)}},
		},
	}
	gw := memory.New()
	require.NoError(t, gw.UpsertPlayers(context.Background(), []database.PlayerRecord{
		{PUUID: "existing", Region: "br1"},
	}))
	sig := NewSignal()

	require.NoError(t, newTestLadder(api, gw, sig).Sweep(context.Background()))

	assert.True(t, sig.IsSet(), "a populated region still latches the signal")
	assert.Zero(t, api.summonerCalls, "no summoner resolution without seeding")
	assert.Len(t, gw.Players(), 1)
}

func TestSweepPaginatesUntilEmptyPage(t *testing.T) {
	t.Parallel()
	api := &fakeLadderAPI{
		pages: map[string][][]riot.LeagueEntry{
			"DIAMOND/I": {
				{entry("d1", 50), entry("d2", 40)},
				{entry("d3", 30)},
			},
		},
	}
	gw := memory.New()
	require.NoError(t, gw.UpsertPlayers(context.Background(), []database.PlayerRecord{
		{PUUID: "existing", Region: "br1"},
	}))

	require.NoError(t, newTestLadder(api, gw, NewSignal()).Sweep(context.Background()))

	assert.Equal(t, []int{1, 2, 3}, api.pageRequests["DIAMOND/I"],
		"paging continues until the first empty page")
	assert.Equal(t, []int{1}, api.pageRequests["IRON/IV"])
	assert.Len(t, gw.Ratings(), 3)
}

func TestSecondSweepSkipsUnchangedSnapshots(t *testing.T) {
	t.Parallel()
	api := &fakeLadderAPI{
		lists: map[string]*riot.LeagueList{
			"challenger": {Tier: "CHALLENGER", Entries: []riot.LeagueEntry{entry("s1", 1200), entry("s2", 1100)}},
		},
	}
	gw := memory.New()
	l := newTestLadder(api, gw, NewSignal())

	require.NoError(t, l.Sweep(context.Background()))
	seeded := api.summonerCalls

	require.NoError(t, l.Sweep(context.Background()))

	assert.Len(t, gw.Ratings(), 2, "unchanged points/wins/losses write no second snapshot")
	assert.Equal(t, seeded, api.summonerCalls, "bootstrap never reseeds")
	assert.Len(t, gw.Players(), 2)
}

func TestSecondSweepRecordsChangedSnapshot(t *testing.T) {
	t.Parallel()
	api := &fakeLadderAPI{
		lists: map[string]*riot.LeagueList{
			"challenger": {Tier: "CHALLENGER", Entries: []riot.LeagueEntry{entry("s1", 1200)}},
		},
	}
	gw := memory.New()
	l := newTestLadder(api, gw, NewSignal())

	require.NoError(t, l.Sweep(context.Background()))

	api.mu.Lock()
	api.lists["challenger"].Entries[0].LeaguePoints = 1250
	api.mu.Unlock()

	require.NoError(t, l.Sweep(context.Background()))
	assert.Len(t, gw.Ratings(), 2, "changed points append a fresh snapshot")
}

func TestSweepAbortsOnFetchError(t *testing.T) {
	t.Parallel()
	api := &fakeLadderAPI{
		entriesErr: map[string]error{
			"EMERALD/II": fmt.Errorf("boom"),
		},
	}
	gw := memory.New()
	require.NoError(t, gw.UpsertPlayers(context.Background(), []database.PlayerRecord{
		{PUUID: "existing", Region: "br1"},
	}))

	err := newTestLadder(api, gw, NewSignal()).Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMERALD II")

	assert.Nil(t, api.pageRequests["PLATINUM/I"], "the sweep stops at the failing division")
}

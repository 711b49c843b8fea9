package riot

import (
	"context"
	"fmt"
	"time"

	"github.com/Gustavo-Feijo/league-crawler/internal/regions"
)

// rankedQueue is the solo/duo queue filter applied to match-id listings.
const rankedQueue = 420

// LeagueEntries fetches one page of a ranked tier/division listing. Pages
// start at 1; an empty slice marks the end of the division.
func (c *Client) LeagueEntries(ctx context.Context, sub regions.SubRegion, tier, division string, page int) ([]LeagueEntry, error) {
	url := fmt.Sprintf(
		"%s/lol/league/v4/entries/RANKED_SOLO_5x5/%s/%s?page=%d",
		sub.Host(), tier, division, page,
	)
	var entries []LeagueEntry
	if err := c.get(ctx, url, &entries); err != nil {
		return nil, fmt.Errorf("league entries %s %s/%s p%d: %w", sub, tier, division, page, err)
	}
	return entries, nil
}

// LeagueList fetches a high-elo bracket (challenger, grandmaster or master)
// as a single unpaged list.
func (c *Client) LeagueList(ctx context.Context, sub regions.SubRegion, bracket string) (*LeagueList, error) {
	url := fmt.Sprintf(
		"%s/lol/league/v4/%sleagues/by-queue/RANKED_SOLO_5x5",
		sub.Host(), bracket,
	)
	var list LeagueList
	if err := c.get(ctx, url, &list); err != nil {
		return nil, fmt.Errorf("league list %s %s: %w", sub, bracket, err)
	}
	return &list, nil
}

// SummonerByID resolves the full player identity behind a ladder entry.
func (c *Client) SummonerByID(ctx context.Context, sub regions.SubRegion, summonerID string) (*Summoner, error) {
	url := fmt.Sprintf("%s/lol/summoner/v4/summoners/%s", sub.Host(), summonerID)
	var s Summoner
	if err := c.get(ctx, url, &s); err != nil {
		return nil, fmt.Errorf("summoner %s: %w", summonerID, err)
	}
	return &s, nil
}

// MatchIDs lists ranked match ids for a player, newest first, bounded below
// by startTime and windowed by start/count.
func (c *Client) MatchIDs(ctx context.Context, main regions.MainRegion, puuid string, startTime time.Time, start, count int) ([]string, error) {
	url := fmt.Sprintf(
		"%s/lol/match/v5/matches/by-puuid/%s/ids?startTime=%d&queue=%d&start=%d&count=%d",
		main.Host(), puuid, startTime.Unix(), rankedQueue, start, count,
	)
	var ids []string
	if err := c.get(ctx, url, &ids); err != nil {
		return nil, fmt.Errorf("match ids %s: %w", puuid, err)
	}
	return ids, nil
}

// MatchByID fetches the full detail payload for one match.
func (c *Client) MatchByID(ctx context.Context, main regions.MainRegion, matchID string) (*Match, error) {
	url := fmt.Sprintf("%s/lol/match/v5/matches/%s", main.Host(), matchID)
	var m Match
	if err := c.get(ctx, url, &m); err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}
	return &m, nil
}

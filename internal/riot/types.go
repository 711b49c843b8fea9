package riot

// LeagueEntry is one ranked ladder row, as returned both by the paged
// entries endpoint and inside a high-elo league list.
type LeagueEntry struct {
	SummonerID   string `json:"summonerId"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// LeagueList is a high-elo bracket payload. The tier lives on the list, not
// on the individual entries.
type LeagueList struct {
	Tier    string        `json:"tier"`
	Entries []LeagueEntry `json:"entries"`
}

// Summoner is the player-identity payload resolved from a summoner id.
type Summoner struct {
	ID            string `json:"id"`
	PUUID         string `json:"puuid"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int    `json:"summonerLevel"`
}

// Match is the full match-detail payload.
type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

// MatchMetadata carries the externally unique match id.
type MatchMetadata struct {
	MatchID string `json:"matchId"`
}

// MatchInfo is the match-level slice of the detail payload.
type MatchInfo struct {
	EndOfGameResult string        `json:"endOfGameResult"`
	GameVersion     string        `json:"gameVersion"`
	GameCreation    int64         `json:"gameCreation"` // epoch millis
	GameDuration    int64         `json:"gameDuration"` // seconds
	PlatformID      string        `json:"platformId"`
	Teams           []Team        `json:"teams"`
	Participants    []Participant `json:"participants"`
}

// Team is one of the two sides of a match.
type Team struct {
	TeamID int  `json:"teamId"`
	Win    bool `json:"win"`
}

// Participant is one player's slice of the match payload.
type Participant struct {
	PUUID          string `json:"puuid"`
	SummonerID     string `json:"summonerId"`
	RiotIDGameName string `json:"riotIdGameName"`
	RiotIDTagline  string `json:"riotIdTagline"`
	ProfileIcon    int    `json:"profileIcon"`
	SummonerLevel  int    `json:"summonerLevel"`

	ChampionID int `json:"championId"`
	Kills      int `json:"kills"`
	Deaths     int `json:"deaths"`
	Assists    int `json:"assists"`

	GoldEarned                  int `json:"goldEarned"`
	GoldSpent                   int `json:"goldSpent"`
	TotalDamageDealtToChampions int `json:"totalDamageDealtToChampions"`

	Item0 int `json:"item0"`
	Item1 int `json:"item1"`
	Item2 int `json:"item2"`
	Item3 int `json:"item3"`
	Item4 int `json:"item4"`
	Item5 int `json:"item5"`
	Item6 int `json:"item6"`

	Perks Perks `json:"perks"`

	Summoner1ID int `json:"summoner1Id"`
	Summoner2ID int `json:"summoner2Id"`

	NeutralMinionsKilled int `json:"neutralMinionsKilled"`
	TotalMinionsKilled   int `json:"totalMinionsKilled"`

	VisionScore int        `json:"visionScore"`
	WardsPlaced int        `json:"wardsPlaced"`
	WardsKilled int        `json:"wardsKilled"`
	Challenges  Challenges `json:"challenges"`

	TeamPosition string `json:"teamPosition"`
	TeamID       int    `json:"teamId"`

	GameEndedInSurrender      bool `json:"gameEndedInSurrender"`
	GameEndedInEarlySurrender bool `json:"gameEndedInEarlySurrender"`
}

// Perks holds the rune page selected for the match.
type Perks struct {
	StatPerks StatPerks   `json:"statPerks"`
	Styles    []PerkStyle `json:"styles"`
}

// StatPerks are the three stat shard choices.
type StatPerks struct {
	Defense int `json:"defense"`
	Flex    int `json:"flex"`
	Offense int `json:"offense"`
}

// PerkStyle is one rune tree with its selections.
type PerkStyle struct {
	Style      int             `json:"style"`
	Selections []PerkSelection `json:"selections"`
}

// PerkSelection is one chosen rune.
type PerkSelection struct {
	Perk int `json:"perk"`
}

// Challenges carries the subset of challenge stats the crawler keeps.
type Challenges struct {
	ControlWardsPlaced int `json:"controlWardsPlaced"`
}

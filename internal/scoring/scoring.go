// Package scoring defines the entities owned by the external scoring API.
// The console only ever holds cached copies of them.
package scoring

// Resource names as they appear in the external API paths.
const (
	ResourceTeams     = "teams"
	ResourcePlayers   = "players"
	ResourceMiniGames = "minigames"
	ResourceSettings  = "settings"
)

// Entity is anything the API identifies by a server-assigned id.
type Entity interface {
	EntityID() int64
}

type Team struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	AttackedCount int    `json:"attacked_count"`
	HideRanking   bool   `json:"hide_ranking"`
	HideTeamName  bool   `json:"hide_team_name"`
}

func (t Team) EntityID() int64 { return t.ID }

type Player struct {
	ID                         int64  `json:"id"`
	Name                       string `json:"name"`
	Number                     string `json:"number"`
	PersonalScore              int    `json:"personal_score"`
	Chips                      int    `json:"chips"`
	CompletedMiniGameCount     int    `json:"completed_minigame_count"`
	Team                       *int64 `json:"team"`
	HideName                   bool   `json:"hide_name"`
	HideTeam                   bool   `json:"hide_team"`
	HidePersonalScore          bool   `json:"hide_personal_score"`
	HideCompletedMiniGameCount bool   `json:"hide_completed_minigame_count"`
}

func (p Player) EntityID() int64 { return p.ID }

// TeamID returns the player's team reference, or 0 when unassigned.
func (p Player) TeamID() int64 {
	if p.Team == nil {
		return 0
	}
	return *p.Team
}

type MiniGame struct {
	ID             int64  `json:"id"`
	Category       string `json:"category"`
	Room           string `json:"room"`
	Name           string `json:"name"`
	AvailableChips int    `json:"available_chips"`
	PlayCount      int    `json:"play_count"`
	IsDisplayed    bool   `json:"is_displayed"`
	IsLimited      bool   `json:"is_limited"`
	LimitedTime    int    `json:"limited_time"`
}

func (g MiniGame) EntityID() int64 { return g.ID }

// Settings is the singleton holding attack multipliers and leaderboard
// display options. Leaderboard counts of zero mean "use the default".
type Settings struct {
	ID                  int64 `json:"id"`
	AttackerTeamBonus   int   `json:"attacker_team_bonus"`
	AttackerPlayerBonus int   `json:"attacker_player_bonus"`
	AttackedIncrement   int   `json:"attacked_increment"`

	HideTeamsScore      bool `json:"hide_teams_score"`
	HideTeamsAttacked   bool `json:"hide_teams_attacked"`
	HidePlayersScore    bool `json:"hide_players_score"`
	HidePlayersMiniGame bool `json:"hide_players_minigame"`

	TopTeamsScore      int `json:"top_teams_score"`
	TopTeamsAttacked   int `json:"top_teams_attacked"`
	TopPlayersScore    int `json:"top_players_score"`
	TopPlayersMiniGame int `json:"top_players_minigame"`

	LoginPassword string `json:"login_password,omitempty"`
}

func (s Settings) EntityID() int64 { return s.ID }

// Redacted returns a copy safe to hand to console clients.
func (s Settings) Redacted() Settings {
	s.LoginPassword = ""
	return s
}

package teams

// PlayerWithElo is a confirmed attendee with their current rating.
type PlayerWithElo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Elo  int    `json:"elo"`
}

// Team is one side of a proposal.
type Team struct {
	Players []PlayerWithElo `json:"players"`
	SumElo  int             `json:"sum_elo"`
	AvgElo  float64         `json:"avg_elo"`
}

// Proposal is an editable two versus two split.
type Proposal struct {
	OccurrenceID string  `json:"occurrence_id,omitempty"`
	TeamA        Team    `json:"team_a"`
	TeamB        Team    `json:"team_b"`
	BalanceScore float64 `json:"balance_score"`
	// Bench holds players taken out of a team while the split is edited.
	Bench []PlayerWithElo `json:"bench,omitempty"`
}

// Side names a team in a proposal.
type Side string

const (
	SideA     Side = "a"
	SideB     Side = "b"
	SideBench Side = "bench"
)

const (
	// PlayersPerMatch is the only roster size the balancer accepts.
	PlayersPerMatch = 4
	// MaxPerTeam caps each side of a proposal.
	MaxPerTeam = 2
)

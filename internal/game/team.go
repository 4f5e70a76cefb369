package game

import (
	"fmt"
	"strings"
)

// Team is a player's side in team mode. TeamNone is the only valid value in ffa.
type Team string

const (
	TeamNone Team = ""
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// ParseTeam accepts "red" or "blue" (any case). Anything else maps to TeamNone.
func ParseTeam(s string) Team {
	switch Team(strings.ToLower(strings.TrimSpace(s))) {
	case TeamRed:
		return TeamRed
	case TeamBlue:
		return TeamBlue
	default:
		return TeamNone
	}
}

// GameMode is the scoring mode of the world.
type GameMode string

const (
	ModeFFA  GameMode = "ffa"
	ModeTeam GameMode = "team"
)

// ParseGameMode accepts exactly "ffa" or "team".
func ParseGameMode(s string) (GameMode, error) {
	switch GameMode(s) {
	case ModeFFA:
		return ModeFFA, nil
	case ModeTeam:
		return ModeTeam, nil
	default:
		return "", fmt.Errorf("mode %q: %w", s, ErrInvalidMode)
	}
}

// TeamScores counts kills per team. Reset on every mode change.
type TeamScores struct {
	Red  int `json:"red" msgpack:"red"`
	Blue int `json:"blue" msgpack:"blue"`
}

// credit adds one point to team. TeamNone is ignored.
func (s *TeamScores) credit(team Team) {
	switch team {
	case TeamRed:
		s.Red++
	case TeamBlue:
		s.Blue++
	}
}

// smallerTeam returns the team with fewer members; red wins ties.
func smallerTeam(players []*Player) Team {
	var red, blue int
	for _, p := range players {
		switch p.Team {
		case TeamRed:
			red++
		case TeamBlue:
			blue++
		}
	}
	if blue < red {
		return TeamBlue
	}
	return TeamRed
}

// balanceTeams splits players alternately into red and blue in id order.
func balanceTeams(players []*Player) {
	for i, p := range players {
		if i%2 == 0 {
			p.Team = TeamRed
		} else {
			p.Team = TeamBlue
		}
	}
}

// clearTeams removes every team assignment.
func clearTeams(players []*Player) {
	for _, p := range players {
		p.Team = TeamNone
	}
}

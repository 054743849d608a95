package constants

import "time"

const (
	// GridSize is the number of cards on a board
	GridSize = 25
	// StartingTeamCards is the number of cards dealt to the team that goes first
	StartingTeamCards = 9
	// SecondTeamCards is the number of cards dealt to the team that goes second
	SecondTeamCards = 8
	// NeutralCards is the number of neutral cards on a board
	NeutralCards = 7
	// AssassinCards is the number of assassin cards on a board
	AssassinCards = 1

	// MinTeamSize is the minimum number of players per team to start a match
	MinTeamSize = 2

	// MatchRetention is how long a match is kept in the registry after creation
	MatchRetention = 24 * time.Hour
	// MetricsRetention is the trailing window of telemetry samples kept per session
	MetricsRetention = 30 * time.Minute
)

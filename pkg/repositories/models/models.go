package models

import (
	gametypes "github.com/cbodonnell/codeword/pkg/game/types"
)

// FinalMetrics are the derived figures computed when a match is archived.
type FinalMetrics struct {
	DurationMillis  int64          `json:"durationMillis"`
	RedScore        int            `json:"redScore"`
	BlueScore       int            `json:"blueScore"`
	Winner          gametypes.Team `json:"winner,omitempty"`
	AvgJitter       float64        `json:"avgJitter"`
	AvgParticipants int            `json:"avgParticipants"`
}

// EndedMatch is one archived match record.
type EndedMatch struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	EndedAt      int64           `json:"endedAt"`
	State        gametypes.Match `json:"state"`
	FinalMetrics FinalMetrics    `json:"finalMetrics"`
}

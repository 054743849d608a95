package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cbodonnell/codeword/pkg/game/constants"
	"github.com/cbodonnell/codeword/pkg/game/types"
	"github.com/cbodonnell/codeword/pkg/words"
)

// RandomTeam picks the team that goes first and is dealt the extra card.
func RandomTeam() types.Team {
	if rand.Intn(2) == 0 {
		return types.TeamRed
	}
	return types.TeamBlue
}

// Deal builds a shuffled board: 9 cards for the starting team, 8 for the
// other, 7 neutral and 1 assassin, paired with distinct words from the
// source. The type assignment is shuffled with rand.Shuffle so every
// permutation is equally likely.
func Deal(source words.Source, startingTeam types.Team) ([]types.Card, error) {
	boardWords, err := source.RandomWords(constants.GridSize)
	if err != nil {
		return nil, fmt.Errorf("failed to draw words: %v", err)
	}

	cardTypes := make([]types.CardType, 0, constants.GridSize)
	first := types.CardType(startingTeam)
	second := types.CardType(startingTeam.Opponent())
	for i := 0; i < constants.StartingTeamCards; i++ {
		cardTypes = append(cardTypes, first)
	}
	for i := 0; i < constants.SecondTeamCards; i++ {
		cardTypes = append(cardTypes, second)
	}
	for i := 0; i < constants.NeutralCards; i++ {
		cardTypes = append(cardTypes, types.CardTypeNeutral)
	}
	for i := 0; i < constants.AssassinCards; i++ {
		cardTypes = append(cardTypes, types.CardTypeAssassin)
	}

	rand.Shuffle(len(cardTypes), func(i, j int) {
		cardTypes[i], cardTypes[j] = cardTypes[j], cardTypes[i]
	})

	cards := make([]types.Card, constants.GridSize)
	for i, word := range boardWords {
		cards[i] = types.Card{
			Word:     word,
			Type:     cardTypes[i],
			Revealed: false,
		}
	}

	return cards, nil
}

// NewMatch creates a fresh match in the lobby phase with a dealt board.
func NewMatch(code string, source words.Source) (types.Match, error) {
	startingTeam := RandomTeam()
	cards, err := Deal(source, startingTeam)
	if err != nil {
		return types.Match{}, fmt.Errorf("failed to deal board: %v", err)
	}

	return types.Match{
		Code:          code,
		Players:       []types.Player{},
		Cards:         cards,
		CurrentTeam:   startingTeam,
		RedRemaining:  remainingFor(types.TeamRed, startingTeam),
		BlueRemaining: remainingFor(types.TeamBlue, startingTeam),
		StartingTeam:  startingTeam,
		CreatedAt:     time.Now().UnixMilli(),
		Phase:         types.PhaseLobby,
		ReadyPlayers:  []string{},
		SpymasterVotes: types.SpymasterVotes{
			Red:  map[string]string{},
			Blue: map[string]string{},
		},
	}, nil
}

func remainingFor(team, startingTeam types.Team) int {
	if team == startingTeam {
		return constants.StartingTeamCards
	}
	return constants.SecondTeamCards
}

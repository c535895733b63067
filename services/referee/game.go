package referee

import (
	"fmt"
	"math/rand"

	"github.com/evenodd/league-manager/pkg/protocol"
	"github.com/xorcare/pointer"
)

// Outcome is the fixed result contract a resolver must honor: an optional
// winner, both point awards, and whatever was drawn to decide it.
type Outcome struct {
	Winner      *string
	Score       map[string]int
	DrawnNumber int
	Outcome     string
}

// Resolver computes a match outcome from the collected choices. An empty
// choice means the player never produced a valid one. The coordination
// core depends only on this contract, not on the game inside.
type Resolver interface {
	Resolve(playerA, choiceA, playerB, choiceB string) Outcome
}

// EvenOdd is the league's game: draw a number, compare parities.
type EvenOdd struct {
	draw func() int
}

// NewEvenOdd creates a resolver drawing uniformly from 1..10.
func NewEvenOdd() *EvenOdd {
	return &EvenOdd{draw: func() int { return rand.Intn(10) + 1 }}
}

// NewEvenOddWithDraw creates a resolver with an injected draw, for
// deterministic play.
func NewEvenOddWithDraw(draw func() int) *EvenOdd {
	return &EvenOdd{draw: draw}
}

// Resolve applies the even/odd rules:
//
//   - both players chose the same parity: draw, 1 point each, regardless
//     of the drawn number;
//   - choices differ: whoever matches the drawn number's parity wins 3,
//     the other gets 0;
//   - a player with no valid choice cannot win: the responsive player
//     takes the match 3-0 without a draw, and two absent players forfeit
//     0-0.
func (g *EvenOdd) Resolve(playerA, choiceA, playerB, choiceB string) Outcome {
	switch {
	case choiceA == "" && choiceB == "":
		return Outcome{
			Winner:  nil,
			Score:   map[string]int{playerA: 0, playerB: 0},
			Outcome: "DOUBLE_FORFEIT",
		}
	case choiceA == "":
		return Outcome{
			Winner:  pointer.String(playerB),
			Score:   map[string]int{playerA: 0, playerB: 3},
			Outcome: fmt.Sprintf("%s_FORFEIT", playerA),
		}
	case choiceB == "":
		return Outcome{
			Winner:  pointer.String(playerA),
			Score:   map[string]int{playerA: 3, playerB: 0},
			Outcome: fmt.Sprintf("%s_FORFEIT", playerB),
		}
	}

	drawn := g.draw()
	if choiceA == choiceB {
		return Outcome{
			Winner:      nil,
			Score:       map[string]int{playerA: 1, playerB: 1},
			DrawnNumber: drawn,
			Outcome:     "DRAW",
		}
	}

	winner, loser := playerA, playerB
	if choiceB == protocol.ParityOf(drawn) {
		winner, loser = playerB, playerA
	}
	return Outcome{
		Winner:      pointer.String(winner),
		Score:       map[string]int{winner: 3, loser: 0},
		DrawnNumber: drawn,
		Outcome:     fmt.Sprintf("%s_WINS", winner),
	}
}

package schedule

import (
	"errors"
	"fmt"

	"github.com/evenodd/league-manager/pkg/protocol"
	"golang.org/x/xerrors"
)

// ErrScheduleInvariant means the generator produced an invalid plan. This
// is a logic error and must abort startup, never be played through.
var ErrScheduleInvariant = errors.New("schedule invariant violation")

// Match is one scheduled contest.
type Match struct {
	Round   int
	Number  int
	MatchID string
	PlayerA string
	PlayerB string
	Referee string
}

// Round is an ordered set of matches played concurrently.
type Round struct {
	Number  int
	RoundID string
	Matches []Match
}

// Generate builds the full round-robin plan for the given rosters using
// the circle method: the first player stays fixed, the rest rotate one
// position per round, and pairs are taken from the outside in. Referees
// rotate over the referee list offset by round number so no referee is
// tied to the same match slot every round.
//
// Deterministic in the roster order, no side effects, called once per
// tournament.
func Generate(players, referees []string) ([]Round, error) {
	n := len(players)
	if n < 2 || n%2 != 0 {
		return nil, xerrors.Errorf("generate schedule: need an even number of players, got %d", n)
	}
	if len(referees) == 0 {
		return nil, xerrors.Errorf("generate schedule: no referees")
	}

	fixed := players[0]
	rest := players[1:]

	rounds := make([]Round, 0, n-1)
	for r := 0; r < n-1; r++ {
		ring := make([]string, n)
		ring[0] = fixed
		for i := 1; i < n; i++ {
			ring[i] = rest[(i-1+r)%(n-1)]
		}

		round := Round{Number: r + 1, RoundID: protocol.RoundID(r + 1)}
		for i := 0; i < n/2; i++ {
			round.Matches = append(round.Matches, Match{
				Round:   r + 1,
				Number:  i + 1,
				MatchID: protocol.MatchID(r+1, i+1),
				PlayerA: ring[i],
				PlayerB: ring[n-1-i],
				Referee: referees[(r+i)%len(referees)],
			})
		}
		rounds = append(rounds, round)
	}

	if err := validate(rounds, players); err != nil {
		return nil, err
	}
	return rounds, nil
}

// FindMatch looks a match up by id across the whole plan.
func FindMatch(rounds []Round, matchID string) (Match, bool) {
	for _, round := range rounds {
		for _, m := range round.Matches {
			if m.MatchID == matchID {
				return m, true
			}
		}
	}
	return Match{}, false
}

func validate(rounds []Round, players []string) error {
	pairs := map[string]string{}
	for _, round := range rounds {
		seen := map[string]bool{}
		for _, m := range round.Matches {
			if m.PlayerA == m.PlayerB {
				return xerrors.Errorf("%s pairs %s with itself: %w", m.MatchID, m.PlayerA, ErrScheduleInvariant)
			}
			if seen[m.PlayerA] || seen[m.PlayerB] {
				return xerrors.Errorf("player appears twice in round %d: %w", round.Number, ErrScheduleInvariant)
			}
			seen[m.PlayerA] = true
			seen[m.PlayerB] = true

			key := pairKey(m.PlayerA, m.PlayerB)
			if prev, ok := pairs[key]; ok {
				return xerrors.Errorf("pair %s already scheduled in %s: %w", key, prev, ErrScheduleInvariant)
			}
			pairs[key] = m.MatchID
		}
	}

	want := len(players) * (len(players) - 1) / 2
	if len(pairs) != want {
		return xerrors.Errorf("expected %d distinct pairs, got %d: %w", want, len(pairs), ErrScheduleInvariant)
	}
	return nil
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%s|%s", a, b)
}

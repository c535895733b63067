package standings

import (
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/evenodd/league-manager/pkg/protocol"
	"golang.org/x/xerrors"
)

var (
	// ErrStaleResult means a result for this match was already applied.
	// Callers acknowledge it, they do not fail on it.
	ErrStaleResult = errors.New("result already applied for match")

	// ErrUnknownPlayer means a result names a player the ledger has no
	// row for.
	ErrUnknownPlayer = errors.New("unknown player in result")
)

type row struct {
	displayName string
	played      int
	wins        int
	draws       int
	losses      int
	points      int
}

// Service accumulates match results into per-player statistics. Apply is
// the single serialization point of the tournament: results from
// concurrent matches land here one at a time.
type Service struct {
	mu      sync.Mutex
	rows    map[string]*row
	applied map[string]bool
}

// NewService creates an empty ledger.
func NewService() *Service {
	return &Service{
		rows:    map[string]*row{},
		applied: map[string]bool{},
	}
}

// InitPlayer seeds a zeroed row for a player at registration time.
func (s *Service) InitPlayer(playerID, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[playerID]; ok {
		return
	}
	s.rows[playerID] = &row{displayName: displayName}
}

// Apply folds one match result into the table. Win pays 3 points, draw 1
// each, loss 0. Applying the same match twice is a no-op signalled with
// ErrStaleResult.
func (s *Service) Apply(result protocol.MatchResultReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied[result.MatchID] {
		return ErrStaleResult
	}
	if len(result.Score) != 2 {
		return xerrors.Errorf("result %s names %d players, want 2", result.MatchID, len(result.Score))
	}

	players := make([]string, 0, 2)
	for id := range result.Score {
		if _, ok := s.rows[id]; !ok {
			return xerrors.Errorf("result %s: %s: %w", result.MatchID, id, ErrUnknownPlayer)
		}
		players = append(players, id)
	}

	winner := ""
	if result.Winner != nil {
		winner = *result.Winner
	}

	for _, id := range players {
		r := s.rows[id]
		r.played++
		switch {
		case winner == "":
			// Draw or double forfeit. A double forfeit pays zero, a
			// played draw pays one each.
			if result.Score[id] > 0 {
				r.draws++
				r.points++
			} else {
				r.losses++
			}
		case winner == id:
			r.wins++
			r.points += 3
		default:
			r.losses++
		}
	}

	s.applied[result.MatchID] = true
	log.Printf("Applied result %s (winner=%q)\n", result.MatchID, winner)
	return nil
}

// Applied reports whether a result for matchID has been folded in.
func (s *Service) Applied(matchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied[matchID]
}

// Snapshot returns the ranked table reflecting everything applied so far.
// Ordering is points desc, wins desc, then player id asc so the output is
// a total order; the numeric rank is shared only on an exact
// (points, wins) tie.
func (s *Service) Snapshot() []protocol.StandingsRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]protocol.StandingsRow, 0, len(s.rows))
	for id, r := range s.rows {
		out = append(out, protocol.StandingsRow{
			PlayerID:    id,
			DisplayName: r.displayName,
			Played:      r.played,
			Wins:        r.wins,
			Draws:       r.draws,
			Losses:      r.losses,
			Points:      r.points,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].PlayerID < out[j].PlayerID
	})

	for i := range out {
		if i > 0 && out[i].Points == out[i-1].Points && out[i].Wins == out[i-1].Wins {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

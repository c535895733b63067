package player

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/evenodd/league-manager/pkg/protocol"
)

// Chooser produces a parity choice for a match. The league only requires
// a single draw with no state; tests plug in deterministic choosers.
type Chooser interface {
	Choose(matchID, opponentID string) string
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(matchID, opponentID string) string

// Choose implements Chooser.
func (f ChooserFunc) Choose(matchID, opponentID string) string {
	return f(matchID, opponentID)
}

// RandomChooser picks odd or even uniformly.
func RandomChooser() Chooser {
	return ChooserFunc(func(string, string) string {
		if rand.Intn(2) == 0 {
			return protocol.ParityOdd
		}
		return protocol.ParityEven
	})
}

// Service is the player agent: it acknowledges invitations, answers
// parity calls through its Chooser, and keeps the latest standings it
// was sent.
type Service struct {
	leagueID string
	chooser  Chooser

	mu        sync.Mutex
	id        string
	authToken string
	standings []protocol.StandingsRow
}

// NewService creates a player service.
func NewService(leagueID string, chooser Chooser) *Service {
	if chooser == nil {
		chooser = RandomChooser()
	}
	return &Service{leagueID: leagueID, chooser: chooser}
}

// SetIdentity records the league-issued id and token.
func (s *Service) SetIdentity(id, authToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.authToken = authToken
}

// ID returns the league-issued player id.
func (s *Service) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// AuthToken returns the league-issued token, empty before registration.
func (s *Service) AuthToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authToken
}

// HandleInvitation acknowledges a game invitation. The ack reuses the
// invitation's conversation id, as does every later message of the match.
func (s *Service) HandleInvitation(invitation protocol.GameInvitation) protocol.GameJoinAck {
	log.Printf("Invited to %s against %s\n", invitation.MatchID, invitation.OpponentID)
	return protocol.GameJoinAck{
		Envelope:  s.envelope(protocol.TypeGameJoinAck, invitation.ConversationID),
		MatchID:   invitation.MatchID,
		Accept:    true,
		ArrivedAt: time.Now().Format(time.RFC3339Nano),
	}
}

// HandleChoiceCall answers a parity call with the chooser's pick.
func (s *Service) HandleChoiceCall(call protocol.ChooseParityCall) protocol.ChooseParityResponse {
	choice := s.chooser.Choose(call.MatchID, call.OpponentID)
	log.Printf("Choosing %q for %s\n", choice, call.MatchID)
	return protocol.ChooseParityResponse{
		Envelope: s.envelope(protocol.TypeChooseParityResponse, call.ConversationID),
		MatchID:  call.MatchID,
		Choice:   choice,
	}
}

// HandleStandings stores the broadcast table.
func (s *Service) HandleStandings(update protocol.StandingsUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.standings = update.Standings
	log.Printf("Standings after %s: %d rows\n", update.RoundID, len(update.Standings))
}

// Standings returns the latest table the league manager broadcast.
func (s *Service) Standings() []protocol.StandingsRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.StandingsRow, len(s.standings))
	copy(out, s.standings)
	return out
}

func (s *Service) envelope(messageType, conversationID string) protocol.Envelope {
	s.mu.Lock()
	id, token := s.id, s.authToken
	s.mu.Unlock()
	return protocol.NewEnvelopeInConversation(messageType, id, token, s.leagueID, conversationID)
}

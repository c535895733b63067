package referee

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/samborkent/uuidv7"
	"golang.org/x/xerrors"

	"github.com/evenodd/league-manager/pkg/protocol"
	"github.com/evenodd/league-manager/pkg/retry"
)

// Phase is a match coordinator lifecycle state.
type Phase string

const (
	PhaseAnnounced      Phase = "ANNOUNCED"
	PhasePlayersInvited Phase = "PLAYERS_INVITED"
	PhaseChoicesPending Phase = "CHOICES_PENDING"
	PhaseResolved       Phase = "RESOLVED"
	PhaseReported       Phase = "REPORTED"
)

// Poster posts a league message to a participant endpoint. Satisfied by
// pkg/transport; faked in tests.
type Poster interface {
	Post(ctx context.Context, endpoint, path, token string, payload, out any) error
}

// Options configures the referee service.
type Options struct {
	Transport Poster
	Resolver  Resolver
	LeagueURL string
	LeagueID  string

	InviteTimeout time.Duration
	ChoiceTimeout time.Duration
	ReportBudget  time.Duration
	Retry         retry.Policy
}

// MatchState is the live record of one running match. Owned by the
// goroutine conducting the match; exposed read-only for health output.
type MatchState struct {
	MatchID        string
	RoundID        string
	ConversationID string
	Phase          Phase
	ChoiceA        string
	ChoiceB        string
	NoResponseA    bool
	NoResponseB    bool
}

// Service conducts matches assigned by the league manager. One Conduct
// call per match, all matches of a round concurrently, no state shared
// between matches.
type Service struct {
	opts Options

	mu        sync.Mutex
	id        string
	authToken string
	matches   map[string]*MatchState
}

// NewService creates a referee service. Identity is set once registration
// with the league manager completes.
func NewService(opts Options) *Service {
	if opts.InviteTimeout <= 0 {
		opts.InviteTimeout = 10 * time.Second
	}
	if opts.ChoiceTimeout <= 0 {
		opts.ChoiceTimeout = 10 * time.Second
	}
	if opts.ReportBudget <= 0 {
		opts.ReportBudget = 30 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.Default
	}
	return &Service{
		opts:    opts,
		matches: map[string]*MatchState{},
	}
}

// SetIdentity records the league-issued id and token.
func (s *Service) SetIdentity(id, authToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.authToken = authToken
}

// ID returns the league-issued referee id.
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

// HandleRound starts one coordinator per assigned match. The HTTP
// handler acknowledges immediately; match conduction runs in the
// background.
func (s *Service) HandleRound(announcement protocol.RoundAnnouncement) {
	log.Printf("Round %s announced with %d matches\n", announcement.RoundID, len(announcement.Matches))
	for _, match := range announcement.Matches {
		go s.Conduct(context.Background(), announcement.RoundID, match)
	}
}

// Conduct drives one match from invitation through result reporting. It
// always reaches a terminal state: unresponsive players degrade to
// NO_RESPONSE outcomes, and a result report that cannot be delivered
// within the report budget is logged and dropped rather than blocking
// the round.
func (s *Service) Conduct(ctx context.Context, roundID string, match protocol.MatchAssignment) {
	conversationID := uuidv7.New().String()
	state := &MatchState{
		MatchID:        match.MatchID,
		RoundID:        roundID,
		ConversationID: conversationID,
		Phase:          PhaseAnnounced,
	}
	s.track(state)
	defer s.untrack(match.MatchID)

	log.Printf("Match %s: %s vs %s\n", match.MatchID, match.PlayerAID, match.PlayerBID)

	// Invitations go out to both players before either response is
	// awaited, so the phase costs one round trip, not two. Acceptance is
	// advisory: a missing ack only matters at choice time.
	s.setPhase(state, PhasePlayersInvited)
	s.invitePlayers(ctx, state, match)

	s.setPhase(state, PhaseChoicesPending)
	choiceA, choiceB := s.collectChoices(ctx, state, match)

	s.mu.Lock()
	state.ChoiceA, state.ChoiceB = choiceA, choiceB
	state.NoResponseA, state.NoResponseB = choiceA == "", choiceB == ""
	state.Phase = PhaseResolved
	s.mu.Unlock()

	outcome := s.opts.Resolver.Resolve(match.PlayerAID, choiceA, match.PlayerBID, choiceB)
	log.Printf("Match %s resolved: %s\n", match.MatchID, outcome.Outcome)

	if err := s.report(ctx, state, match, outcome); err != nil {
		log.Printf("Match %s left unreported: %v\n", match.MatchID, err)
		return
	}
	s.setPhase(state, PhaseReported)
}

func (s *Service) invitePlayers(ctx context.Context, state *MatchState, match protocol.MatchAssignment) {
	invite := func(playerID, endpoint, opponentID string) {
		msg := protocol.GameInvitation{
			Envelope:   s.envelope(protocol.TypeGameInvitation, state.ConversationID),
			MatchID:    match.MatchID,
			RoundID:    state.RoundID,
			OpponentID: opponentID,
			GameType:   protocol.GameType,
		}

		callCtx, cancel := context.WithTimeout(ctx, s.opts.InviteTimeout)
		defer cancel()

		var ack protocol.GameJoinAck
		err := retry.Do(callCtx, s.opts.Retry, func() error {
			return s.opts.Transport.Post(callCtx, endpoint, protocol.PathInvite, s.AuthToken(), msg, &ack)
		})
		if err != nil {
			log.Printf("Match %s: no invitation ack from %s: %v\n", match.MatchID, playerID, err)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		invite(match.PlayerAID, match.PlayerAEndpoint, match.PlayerBID)
	}()
	go func() {
		defer wg.Done()
		invite(match.PlayerBID, match.PlayerBEndpoint, match.PlayerAID)
	}()
	wg.Wait()
}

// collectChoices fans out to both players under one joined deadline and
// returns their parity choices, empty for NO_RESPONSE.
func (s *Service) collectChoices(ctx context.Context, state *MatchState, match protocol.MatchAssignment) (string, string) {
	collectCtx, cancel := context.WithTimeout(ctx, s.opts.ChoiceTimeout)
	defer cancel()

	ask := func(playerID, endpoint, opponentID string, out *string) {
		msg := protocol.ChooseParityCall{
			Envelope:   s.envelope(protocol.TypeChooseParityCall, state.ConversationID),
			MatchID:    match.MatchID,
			RoundID:    state.RoundID,
			OpponentID: opponentID,
		}

		err := retry.Do(collectCtx, s.opts.Retry, func() error {
			var resp protocol.ChooseParityResponse
			if err := s.opts.Transport.Post(collectCtx, endpoint, protocol.PathChoose, s.AuthToken(), msg, &resp); err != nil {
				return err
			}
			// A malformed choice counts the same as no answer.
			if !protocol.ValidParity(resp.Choice) {
				return xerrors.Errorf("invalid parity %q from %s", resp.Choice, playerID)
			}
			*out = strings.ToLower(strings.TrimSpace(resp.Choice))
			return nil
		})
		if err != nil {
			log.Printf("Match %s: no valid choice from %s: %v\n", match.MatchID, playerID, err)
			*out = ""
		}
	}

	var choiceA, choiceB string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ask(match.PlayerAID, match.PlayerAEndpoint, match.PlayerBID, &choiceA)
	}()
	go func() {
		defer wg.Done()
		ask(match.PlayerBID, match.PlayerBEndpoint, match.PlayerAID, &choiceB)
	}()
	wg.Wait()

	return choiceA, choiceB
}

func (s *Service) report(ctx context.Context, state *MatchState, match protocol.MatchAssignment, outcome Outcome) error {
	choices := map[string]string{}
	if state.ChoiceA != "" {
		choices[match.PlayerAID] = state.ChoiceA
	}
	if state.ChoiceB != "" {
		choices[match.PlayerBID] = state.ChoiceB
	}

	report := protocol.MatchResultReport{
		Envelope:    s.envelope(protocol.TypeMatchResultReport, state.ConversationID),
		RoundID:     state.RoundID,
		MatchID:     match.MatchID,
		Winner:      outcome.Winner,
		Score:       outcome.Score,
		DrawnNumber: outcome.DrawnNumber,
		Choices:     choices,
		Outcome:     outcome.Outcome,
	}

	reportCtx, cancel := context.WithTimeout(ctx, s.opts.ReportBudget)
	defer cancel()

	return retry.Do(reportCtx, s.opts.Retry, func() error {
		return s.opts.Transport.Post(reportCtx, s.opts.LeagueURL, protocol.PathResult, s.AuthToken(), report, nil)
	})
}

// Matches returns a copy of the live match states, for health output.
func (s *Service) Matches() []MatchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MatchState, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, *m)
	}
	return out
}

func (s *Service) envelope(messageType, conversationID string) protocol.Envelope {
	return protocol.NewEnvelopeInConversation(messageType, s.ID(), s.AuthToken(), s.opts.LeagueID, conversationID)
}

func (s *Service) setPhase(state *MatchState, phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.Phase = phase
}

func (s *Service) track(state *MatchState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[state.MatchID] = state
}

func (s *Service) untrack(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, matchID)
}

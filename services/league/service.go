package league

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/xerrors"

	"github.com/evenodd/league-manager/pkg/protocol"
	"github.com/evenodd/league-manager/repos/registry"
	"github.com/evenodd/league-manager/services/schedule"
	"github.com/evenodd/league-manager/services/standings"
)

var (
	// ErrUnknownMatch is returned for a result that names no scheduled
	// match.
	ErrUnknownMatch = errors.New("result for unknown match")

	// ErrWrongReferee is returned when a result arrives from a referee
	// the match was not assigned to.
	ErrWrongReferee = errors.New("result from unassigned referee")

	// ErrNotStarted is returned for results arriving before the schedule
	// exists.
	ErrNotStarted = errors.New("tournament not started")
)

// Poster posts a league message to a participant endpoint.
type Poster interface {
	Post(ctx context.Context, endpoint, path, token string, payload, out any) error
}

// Reporter receives the final standings once the tournament ends.
// repos/resend implements this; a nil Reporter disables it.
type Reporter interface {
	SendFinalStandings(ctx context.Context, leagueID string, rows []protocol.StandingsRow) error
}

// Options configures the league service.
type Options struct {
	Registry  *registry.Service
	Ledger    *standings.Service
	Transport Poster
	Reporter  Reporter

	LeagueID     string
	RoundPause   time.Duration
	RoundTimeout time.Duration
}

// Service is the coordinator: it fills the roster, builds the schedule
// once, then drives rounds to completion and broadcasts standings.
type Service struct {
	opts Options

	startOnce sync.Once

	mu      sync.Mutex
	rounds  []schedule.Round
	started bool

	resultArrived chan struct{}
	done          chan struct{}
}

// NewService creates a league service.
func NewService(opts Options) *Service {
	if opts.RoundPause <= 0 {
		opts.RoundPause = 10 * time.Second
	}
	if opts.RoundTimeout <= 0 {
		opts.RoundTimeout = 2 * time.Minute
	}
	return &Service{
		opts:          opts,
		resultArrived: make(chan struct{}, 64),
		done:          make(chan struct{}),
	}
}

// HandleRegister issues an identity for a registration request. Once the
// roster is full the tournament starts in the background, exactly once.
func (s *Service) HandleRegister(req protocol.RegisterRequest) (protocol.RegisterResponse, error) {
	participant, err := s.opts.Registry.Register(req.Role, req.DisplayName, req.ContactEndpoint)
	if err != nil {
		return protocol.RegisterResponse{}, err
	}

	if participant.Role == protocol.RolePlayer {
		s.opts.Ledger.InitPlayer(participant.ID, participant.DisplayName)
	}

	if s.opts.Registry.Full() {
		s.startOnce.Do(func() {
			log.Println("Roster complete, starting tournament")
			go s.runTournament(context.Background())
		})
	}

	return protocol.RegisterResponse{
		Envelope:      protocol.NewEnvelopeInConversation(protocol.TypeRegisterResponse, "league_manager", participant.AuthToken, s.opts.LeagueID, req.ConversationID),
		Status:        "ACCEPTED",
		ParticipantID: participant.ID,
		AuthToken:     participant.AuthToken,
	}, nil
}

// HandleResult ingests a referee's result report. Duplicates surface as
// standings.ErrStaleResult so the transport can acknowledge instead of
// failing; results for unknown matches are rejected.
func (s *Service) HandleResult(senderID string, report protocol.MatchResultReport) error {
	s.mu.Lock()
	rounds := s.rounds
	s.mu.Unlock()

	if rounds == nil {
		return ErrNotStarted
	}
	match, ok := schedule.FindMatch(rounds, report.MatchID)
	if !ok {
		return xerrors.Errorf("%s: %w", report.MatchID, ErrUnknownMatch)
	}
	if senderID != "" && senderID != match.Referee {
		return xerrors.Errorf("%s from %s, assigned to %s: %w", report.MatchID, senderID, match.Referee, ErrWrongReferee)
	}

	if err := s.opts.Ledger.Apply(report); err != nil {
		return err
	}

	select {
	case s.resultArrived <- struct{}{}:
	default:
	}
	return nil
}

// Snapshot returns the current ranked table.
func (s *Service) Snapshot() []protocol.StandingsRow {
	return s.opts.Ledger.Snapshot()
}

// Done is closed when the final round has completed and standings have
// been broadcast.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Started reports whether the schedule has been generated.
func (s *Service) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *Service) runTournament(ctx context.Context) {
	players := s.opts.Registry.Players()
	referees := s.opts.Registry.Referees()

	playerIDs := make([]string, 0, len(players))
	for _, p := range players {
		playerIDs = append(playerIDs, p.ID)
	}
	refereeIDs := make([]string, 0, len(referees))
	for _, r := range referees {
		refereeIDs = append(refereeIDs, r.ID)
	}

	rounds, err := schedule.Generate(playerIDs, refereeIDs)
	if err != nil {
		// A bad schedule is a generator bug, not a condition to play
		// through.
		log.Fatalf("Schedule generation failed: %v", err)
	}

	s.mu.Lock()
	s.rounds = rounds
	s.started = true
	s.mu.Unlock()

	logSchedule(rounds)

	for i, round := range rounds {
		s.runRound(ctx, round)
		if i < len(rounds)-1 {
			log.Printf("Waiting %s before round %d\n", s.opts.RoundPause, round.Number+1)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.opts.RoundPause):
			}
		}
	}

	final := s.opts.Ledger.Snapshot()
	log.Println("Tournament complete, final standings:")
	logStandings(final)

	if s.opts.Reporter != nil {
		if err := s.opts.Reporter.SendFinalStandings(ctx, s.opts.LeagueID, final); err != nil {
			log.Printf("Failed to send final report: %v\n", err)
		}
	}

	close(s.done)
}

func (s *Service) runRound(ctx context.Context, round schedule.Round) {
	log.Printf(">>> Starting round %d <<<\n", round.Number)
	s.announceRound(ctx, round)
	s.awaitRound(ctx, round)

	rows := s.opts.Ledger.Snapshot()
	logStandings(rows)
	s.broadcastStandings(ctx, round, rows)
}

// announceRound groups the round's matches by assigned referee and sends
// each referee one announcement, concurrently.
func (s *Service) announceRound(ctx context.Context, round schedule.Round) {
	byReferee := map[string][]protocol.MatchAssignment{}
	for _, m := range round.Matches {
		byReferee[m.Referee] = append(byReferee[m.Referee], protocol.MatchAssignment{
			MatchID:         m.MatchID,
			GameType:        protocol.GameType,
			PlayerAID:       m.PlayerA,
			PlayerAEndpoint: s.endpoint(m.PlayerA),
			PlayerBID:       m.PlayerB,
			PlayerBEndpoint: s.endpoint(m.PlayerB),
			RefereeID:       m.Referee,
		})
	}

	var wg sync.WaitGroup
	for refereeID, matches := range byReferee {
		referee, ok := s.opts.Registry.Participant(refereeID)
		if !ok {
			log.Printf("No such referee %s, skipping announcement\n", refereeID)
			continue
		}

		wg.Add(1)
		go func(referee registry.Participant, matches []protocol.MatchAssignment) {
			defer wg.Done()
			announcement := protocol.RoundAnnouncement{
				Envelope: protocol.NewEnvelope(protocol.TypeRoundAnnouncement, "league_manager", referee.AuthToken, s.opts.LeagueID),
				RoundID:  round.RoundID,
				Matches:  matches,
			}
			if err := s.opts.Transport.Post(ctx, referee.ContactEndpoint, protocol.PathRound, referee.AuthToken, announcement, nil); err != nil {
				log.Printf("Failed to announce %s to %s: %v\n", round.RoundID, referee.ID, err)
			}
		}(referee, matches)
	}
	wg.Wait()
}

// awaitRound blocks until every match of the round has a result applied
// or the aggregate round timeout passes. A stuck match never holds the
// tournament: it is logged as abandoned and the round moves on.
func (s *Service) awaitRound(ctx context.Context, round schedule.Round) {
	deadline := time.NewTimer(s.opts.RoundTimeout)
	defer deadline.Stop()

	for {
		if s.roundComplete(round) {
			log.Printf(">>> Round %d complete <<<\n", round.Number)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-s.resultArrived:
		case <-deadline.C:
			for _, m := range round.Matches {
				if !s.opts.Ledger.Applied(m.MatchID) {
					log.Printf("Match %s abandoned after %s\n", m.MatchID, s.opts.RoundTimeout)
				}
			}
			return
		}
	}
}

func (s *Service) roundComplete(round schedule.Round) bool {
	for _, m := range round.Matches {
		if !s.opts.Ledger.Applied(m.MatchID) {
			return false
		}
	}
	return true
}

func (s *Service) broadcastStandings(ctx context.Context, round schedule.Round, rows []protocol.StandingsRow) {
	var wg sync.WaitGroup
	for _, p := range s.opts.Registry.Players() {
		wg.Add(1)
		go func(p registry.Participant) {
			defer wg.Done()
			update := protocol.StandingsUpdate{
				Envelope:  protocol.NewEnvelope(protocol.TypeStandingsUpdate, "league_manager", p.AuthToken, s.opts.LeagueID),
				RoundID:   round.RoundID,
				Final:     round.Number == len(s.roundsCopy()),
				Standings: rows,
			}
			if err := s.opts.Transport.Post(ctx, p.ContactEndpoint, protocol.PathStandings, p.AuthToken, update, nil); err != nil {
				log.Printf("Failed to send standings to %s: %v\n", p.ID, err)
			}
		}(p)
	}
	wg.Wait()
}

func (s *Service) roundsCopy() []schedule.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rounds
}

func (s *Service) endpoint(participantID string) string {
	p, ok := s.opts.Registry.Participant(participantID)
	if !ok {
		return ""
	}
	return p.ContactEndpoint
}

func logSchedule(rounds []schedule.Round) {
	log.Println("Tournament schedule:")
	for _, round := range rounds {
		for _, m := range round.Matches {
			log.Printf("  %s: %s vs %s [referee %s]\n", m.MatchID, m.PlayerA, m.PlayerB, m.Referee)
		}
	}
}

func logStandings(rows []protocol.StandingsRow) {
	for _, r := range rows {
		log.Printf("  #%d %s (%s) P:%d W:%d D:%d L:%d pts:%d\n",
			r.Rank, r.PlayerID, r.DisplayName, r.Played, r.Wins, r.Draws, r.Losses, r.Points)
	}
}

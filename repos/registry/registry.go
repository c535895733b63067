package registry

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/evenodd/league-manager/pkg/protocol"
	"github.com/evenodd/league-manager/pkg/token"
)

var (
	// ErrRosterFull is returned once a role's quota is met.
	ErrRosterFull = errors.New("roster full for role")

	// ErrDuplicateRegistration is returned when the same contact endpoint
	// registers twice for the same role under the reject policy.
	ErrDuplicateRegistration = errors.New("endpoint already registered for role")

	// ErrUnknownRole is returned for roles other than PLAYER and REFEREE.
	ErrUnknownRole = errors.New("unknown role")
)

// Duplicate-endpoint policies.
const (
	PolicyReject  = "reject"
	PolicyReissue = "reissue"
)

// Participant is one registered agent. Immutable once issued, except for
// the token under the reissue policy.
type Participant struct {
	ID              string
	Role            string
	DisplayName     string
	ContactEndpoint string
	AuthToken       string
	RegisteredAt    time.Time
}

// Service issues participant identities and owns the roster. All writes
// happen during the registration phase; afterwards the roster is only
// read.
type Service struct {
	mu           sync.Mutex
	playerQuota  int
	refereeQuota int
	policy       string

	players  []*Participant
	referees []*Participant
	byToken  map[string]string
}

// NewService creates a registry with the given role quotas and
// duplicate-endpoint policy.
func NewService(playerQuota, refereeQuota int, policy string) *Service {
	if policy != PolicyReissue {
		policy = PolicyReject
	}
	return &Service{
		playerQuota:  playerQuota,
		refereeQuota: refereeQuota,
		policy:       policy,
		byToken:      map[string]string{},
	}
}

// Register issues a new identity for the given role. Ids are sequential
// per role and never reused; tokens are unique process-wide.
func (s *Service) Register(role, displayName, contactEndpoint string) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		roster *[]*Participant
		quota  int
		prefix string
	)
	switch role {
	case protocol.RolePlayer:
		roster, quota, prefix = &s.players, s.playerQuota, "P"
	case protocol.RoleReferee:
		roster, quota, prefix = &s.referees, s.refereeQuota, "REF"
	default:
		return Participant{}, ErrUnknownRole
	}

	for _, p := range *roster {
		if p.ContactEndpoint != contactEndpoint {
			continue
		}
		if s.policy == PolicyReject {
			return Participant{}, ErrDuplicateRegistration
		}
		// Reissue: same identity, fresh token. The old token stops
		// validating immediately.
		fresh, err := token.Generate()
		if err != nil {
			return Participant{}, err
		}
		delete(s.byToken, p.AuthToken)
		p.AuthToken = fresh
		s.byToken[fresh] = p.ID
		log.Printf("Reissued token for %s (%s)\n", p.ID, p.DisplayName)
		return *p, nil
	}

	if len(*roster) >= quota {
		return Participant{}, ErrRosterFull
	}

	authToken, err := token.Generate()
	if err != nil {
		return Participant{}, err
	}

	participant := &Participant{
		ID:              fmt.Sprintf("%s-%d", prefix, len(*roster)+1),
		Role:            role,
		DisplayName:     displayName,
		ContactEndpoint: contactEndpoint,
		AuthToken:       authToken,
		RegisteredAt:    time.Now(),
	}
	*roster = append(*roster, participant)
	s.byToken[authToken] = participant.ID

	log.Printf("Registered %s: %s (%s)\n", role, participant.ID, displayName)
	return *participant, nil
}

// Full reports whether both role quotas are met.
func (s *Service) Full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players) == s.playerQuota && len(s.referees) == s.refereeQuota
}

// Players returns the registered players in registration order.
func (s *Service) Players() []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRoster(s.players)
}

// Referees returns the registered referees in registration order.
func (s *Service) Referees() []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRoster(s.referees)
}

// Participant looks up a participant by id.
func (s *Service) Participant(id string) (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.ID == id {
			return *p, true
		}
	}
	for _, p := range s.referees {
		if p.ID == id {
			return *p, true
		}
	}
	return Participant{}, false
}

// ValidateToken resolves a token to the participant it was issued to.
func (s *Service) ValidateToken(tok string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byToken[tok]
	return id, ok
}

func copyRoster(roster []*Participant) []Participant {
	out := make([]Participant, 0, len(roster))
	for _, p := range roster {
		out = append(out, *p)
	}
	return out
}

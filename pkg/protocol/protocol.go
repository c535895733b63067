package protocol

import (
	"fmt"
	"strings"
	"time"

	"github.com/samborkent/uuidv7"
)

const (
	// Version is the protocol tag carried by every message.
	Version = "league.v2"

	// GameType is the only game this league plays.
	GameType = "even_odd"
)

// Message types for the league protocol.
const (
	TypeRegisterRequest      = "REGISTER_REQUEST"
	TypeRegisterResponse     = "REGISTER_RESPONSE"
	TypeRoundAnnouncement    = "ROUND_ANNOUNCEMENT"
	TypeGameInvitation       = "GAME_INVITATION"
	TypeGameJoinAck          = "GAME_JOIN_ACK"
	TypeChooseParityCall     = "CHOOSE_PARITY_CALL"
	TypeChooseParityResponse = "CHOOSE_PARITY_RESPONSE"
	TypeMatchResultReport    = "MATCH_RESULT_REPORT"
	TypeStandingsUpdate      = "STANDINGS_UPDATE"
)

// Roles a participant can register as.
const (
	RolePlayer  = "PLAYER"
	RoleReferee = "REFEREE"
)

// HTTP paths each message type is delivered on. The host part is the
// receiver's registered contact endpoint.
const (
	PathRegister  = "/league/v1/register"
	PathResult    = "/league/v1/result"
	PathRound     = "/referee/v1/round"
	PathInvite    = "/player/v1/invite"
	PathChoose    = "/player/v1/choose"
	PathStandings = "/player/v1/standings"
)

// Parity values a player may choose.
const (
	ParityOdd  = "odd"
	ParityEven = "even"
)

// ValidParity reports whether s is a usable parity choice.
func ValidParity(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == ParityOdd || s == ParityEven
}

// ParityOf returns the parity of n.
func ParityOf(n int) string {
	if n%2 == 1 {
		return ParityOdd
	}
	return ParityEven
}

// Envelope is the header every league message carries, both directions.
type Envelope struct {
	Protocol       string `json:"protocol"`
	MessageType    string `json:"message_type"`
	Sender         string `json:"sender"`
	Timestamp      string `json:"timestamp"`
	ConversationID string `json:"conversation_id"`
	AuthToken      string `json:"auth_token"`
	LeagueID       string `json:"league_id"`
}

// NewEnvelope creates an envelope with a fresh conversation id.
func NewEnvelope(messageType, sender, authToken, leagueID string) Envelope {
	return NewEnvelopeInConversation(messageType, sender, authToken, leagueID, uuidv7.New().String())
}

// NewEnvelopeInConversation creates an envelope reusing an existing
// conversation id. Every message of one match reuses the id the
// invitation opened with.
func NewEnvelopeInConversation(messageType, sender, authToken, leagueID, conversationID string) Envelope {
	return Envelope{
		Protocol:       Version,
		MessageType:    messageType,
		Sender:         sender,
		Timestamp:      time.Now().Format(time.RFC3339Nano),
		ConversationID: conversationID,
		AuthToken:      authToken,
		LeagueID:       leagueID,
	}
}

// RegisterRequest is sent by an unregistered participant to the league
// manager. AuthToken in the envelope is empty, nothing has been issued yet.
type RegisterRequest struct {
	Envelope
	Role                 string   `json:"role"`
	DisplayName          string   `json:"display_name"`
	Version              string   `json:"version"`
	GameTypes            []string `json:"game_types"`
	ContactEndpoint      string   `json:"contact_endpoint"`
	MaxConcurrentMatches int      `json:"max_concurrent_matches"`
}

// RegisterResponse carries the issued identity back to the participant.
type RegisterResponse struct {
	Envelope
	Status        string `json:"status"`
	ParticipantID string `json:"participant_id"`
	AuthToken     string `json:"auth_token"`
}

// MatchAssignment is one match inside a round announcement, with enough
// endpoint information for the referee to reach both players.
type MatchAssignment struct {
	MatchID         string `json:"match_id"`
	GameType        string `json:"game_type"`
	PlayerAID       string `json:"player_a_id"`
	PlayerAEndpoint string `json:"player_a_endpoint"`
	PlayerBID       string `json:"player_b_id"`
	PlayerBEndpoint string `json:"player_b_endpoint"`
	RefereeID       string `json:"referee_id"`
}

// RoundAnnouncement tells a referee which matches of a round are its to run.
type RoundAnnouncement struct {
	Envelope
	RoundID string            `json:"round_id"`
	Matches []MatchAssignment `json:"matches"`
}

// GameInvitation is sent by a referee to each player of a match.
type GameInvitation struct {
	Envelope
	MatchID    string `json:"match_id"`
	RoundID    string `json:"round_id"`
	OpponentID string `json:"opponent_id"`
	GameType   string `json:"game_type"`
}

// GameJoinAck is the player's advisory acceptance of an invitation.
type GameJoinAck struct {
	Envelope
	MatchID   string `json:"match_id"`
	Accept    bool   `json:"accept"`
	ArrivedAt string `json:"arrived_at"`
}

// ChooseParityCall asks a player for its parity choice. Standings are
// informational only.
type ChooseParityCall struct {
	Envelope
	MatchID    string         `json:"match_id"`
	RoundID    string         `json:"round_id"`
	OpponentID string         `json:"opponent_id"`
	Standings  []StandingsRow `json:"standings,omitempty"`
}

// ChooseParityResponse carries the player's choice back to the referee.
type ChooseParityResponse struct {
	Envelope
	MatchID string `json:"match_id"`
	Choice  string `json:"choice"`
}

// MatchResultReport is the referee's final word on a match. Winner is nil
// for a draw or a double forfeit.
type MatchResultReport struct {
	Envelope
	RoundID     string            `json:"round_id"`
	MatchID     string            `json:"match_id"`
	Winner      *string           `json:"winner"`
	Score       map[string]int    `json:"score"`
	DrawnNumber int               `json:"drawn_number,omitempty"`
	Choices     map[string]string `json:"choices,omitempty"`
	Outcome     string            `json:"outcome,omitempty"`
}

// StandingsRow is one ranked line of the league table.
type StandingsRow struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Played      int    `json:"played"`
	Wins        int    `json:"wins"`
	Draws       int    `json:"draws"`
	Losses      int    `json:"losses"`
	Points      int    `json:"points"`
}

// StandingsUpdate is broadcast to every player after each round.
type StandingsUpdate struct {
	Envelope
	RoundID   string         `json:"round_id"`
	Final     bool           `json:"final"`
	Standings []StandingsRow `json:"standings"`
}

// Ack is the generic acknowledgement body for notifications.
type Ack struct {
	Status string `json:"status"`
}

// MatchID formats the canonical match identifier for a round/match pair.
func MatchID(round, match int) string {
	return fmt.Sprintf("R%dM%d", round, match)
}

// RoundID formats the canonical round identifier.
func RoundID(round int) string {
	return fmt.Sprintf("R%d", round)
}

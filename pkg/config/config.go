package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/xerrors"
)

// League is the league manager configuration.
type League struct {
	Port               string        `env:"PORT" envDefault:"8080"`
	CORSHosts          string        `env:"CORS_HOSTS" envDefault:""`
	LeagueID           string        `env:"LEAGUE_ID" envDefault:"league_2026_even_odd"`
	PlayerQuota        int           `env:"PLAYER_QUOTA" envDefault:"4"`
	RefereeQuota       int           `env:"REFEREE_QUOTA" envDefault:"2"`
	RegistrationPolicy string        `env:"REGISTRATION_POLICY" envDefault:"reject"`
	RoundPause         time.Duration `env:"ROUND_PAUSE" envDefault:"10s"`
	RoundTimeout       time.Duration `env:"ROUND_TIMEOUT" envDefault:"2m"`
	CallTimeout        time.Duration `env:"CALL_TIMEOUT" envDefault:"10s"`
	ResendKey          string        `env:"RESEND_KEY" envDefault:""`
	OperatorEmail      string        `env:"OPERATOR_EMAIL" envDefault:""`
}

// Referee is the referee agent configuration.
type Referee struct {
	Port          string        `env:"PORT" envDefault:"8091"`
	LeagueURL     string        `env:"LEAGUE_URL" envDefault:"http://localhost:8080"`
	LeagueID      string        `env:"LEAGUE_ID" envDefault:"league_2026_even_odd"`
	DisplayName   string        `env:"DISPLAY_NAME" envDefault:"Referee Agent"`
	Endpoint      string        `env:"CONTACT_ENDPOINT" envDefault:""`
	InviteTimeout time.Duration `env:"INVITE_TIMEOUT" envDefault:"10s"`
	ChoiceTimeout time.Duration `env:"CHOICE_TIMEOUT" envDefault:"10s"`
	ReportBudget  time.Duration `env:"REPORT_BUDGET" envDefault:"30s"`
	RetryAttempts int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryBackoff  time.Duration `env:"RETRY_BACKOFF" envDefault:"500ms"`
	CallTimeout   time.Duration `env:"CALL_TIMEOUT" envDefault:"10s"`
}

// Player is the player agent configuration.
type Player struct {
	Port        string        `env:"PORT" envDefault:"8101"`
	LeagueURL   string        `env:"LEAGUE_URL" envDefault:"http://localhost:8080"`
	LeagueID    string        `env:"LEAGUE_ID" envDefault:"league_2026_even_odd"`
	DisplayName string        `env:"DISPLAY_NAME" envDefault:"Player Agent"`
	Endpoint    string        `env:"CONTACT_ENDPOINT" envDefault:""`
	CallTimeout time.Duration `env:"CALL_TIMEOUT" envDefault:"10s"`
}

// Parse loads env vars into target.
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return xerrors.Errorf("parse env: %w", err)
	}
	return nil
}

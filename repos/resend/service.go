package resend

import (
	"context"
	"fmt"
	"log"
	"strings"

	resend "github.com/resend/resend-go/v2"

	"github.com/evenodd/league-manager/pkg/protocol"
)

// Service emails the final league table to the tournament operator once
// the last round has completed.
type Service struct {
	resendClient  *resend.Client
	operatorEmail string
}

// NewService creates a new mail service.
func NewService(apiKey, operatorEmail string) *Service {
	return &Service{
		resendClient:  resend.NewClient(apiKey),
		operatorEmail: operatorEmail,
	}
}

// SendFinalStandings mails the ranked table for leagueID to the operator.
func (s Service) SendFinalStandings(ctx context.Context, leagueID string, rows []protocol.StandingsRow) error {
	params := &resend.SendEmailRequest{
		From:    "onboarding@resend.dev",
		To:      []string{s.operatorEmail},
		Subject: fmt.Sprintf("Final standings for %s", leagueID),
		Html:    getEmailTemplate(leagueID, rows),
	}

	_, err := s.resendClient.Emails.Send(params)
	if err != nil {
		log.Printf("Failed to send mail request: %v\n", err)
		return err
	}
	return nil
}

func getEmailTemplate(leagueID string, rows []protocol.StandingsRow) string {
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(fmt.Sprintf(
			"<tr><td>%d</td><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td></tr>",
			r.Rank, r.PlayerID, r.DisplayName, r.Played, r.Wins, r.Draws, r.Losses, r.Points,
		))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <style>
        body {
            font-family: Arial, sans-serif;
            background-color: #f4f4f4;
            margin: 0;
            padding: 20px;
        }
        table {
            background-color: #ffffff;
            border-collapse: collapse;
            margin: 0 auto;
        }
        th, td {
            border: 1px solid #dddddd;
            padding: 8px 12px;
            text-align: center;
        }
    </style>
</head>
<body>
    <h2>Tournament complete: %s</h2>
    <table>
        <tr><th>Rank</th><th>ID</th><th>Name</th><th>Played</th><th>W</th><th>D</th><th>L</th><th>Points</th></tr>
        %s
    </table>
</body>
</html>`, leagueID, b.String())
}

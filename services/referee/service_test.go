package referee

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/evenodd/league-manager/pkg/protocol"
	"github.com/evenodd/league-manager/pkg/retry"
)

// fakePoster answers player calls from canned choices and collects result
// reports, standing in for the HTTP transport.
type fakePoster struct {
	mu        sync.Mutex
	choices   map[string]string
	down      map[string]bool
	reportErr error
	reports   []protocol.MatchResultReport
}

func (f *fakePoster) Post(ctx context.Context, endpoint, path, token string, payload, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch path {
	case protocol.PathInvite:
		if f.down[endpoint] {
			return errors.New("player unreachable")
		}
		if ack, ok := out.(*protocol.GameJoinAck); ok {
			ack.Accept = true
		}
		return nil
	case protocol.PathChoose:
		if f.down[endpoint] {
			return errors.New("player unreachable")
		}
		if resp, ok := out.(*protocol.ChooseParityResponse); ok {
			resp.Choice = f.choices[endpoint]
		}
		return nil
	case protocol.PathResult:
		if f.reportErr != nil {
			return f.reportErr
		}
		f.reports = append(f.reports, payload.(protocol.MatchResultReport))
		return nil
	}
	return errors.New("unexpected path " + path)
}

func (f *fakePoster) lastReport() (protocol.MatchResultReport, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reports) == 0 {
		return protocol.MatchResultReport{}, false
	}
	return f.reports[len(f.reports)-1], true
}

func newTestService(poster *fakePoster, drawn int) *Service {
	s := NewService(Options{
		Transport:     poster,
		Resolver:      NewEvenOddWithDraw(func() int { return drawn }),
		LeagueURL:     "http://league",
		LeagueID:      "league_test",
		InviteTimeout: 100 * time.Millisecond,
		ChoiceTimeout: 200 * time.Millisecond,
		ReportBudget:  time.Second,
		Retry:         retry.Policy{MaxAttempts: 2, Backoff: 10 * time.Millisecond},
	})
	s.SetIdentity("REF-1", "tok-ref-1")
	return s
}

func testMatch() protocol.MatchAssignment {
	return protocol.MatchAssignment{
		MatchID:         "R1M1",
		GameType:        protocol.GameType,
		PlayerAID:       "P-1",
		PlayerAEndpoint: "http://p1",
		PlayerBID:       "P-2",
		PlayerBEndpoint: "http://p2",
		RefereeID:       "REF-1",
	}
}

func TestConductReportsWin(t *testing.T) {
	poster := &fakePoster{
		choices: map[string]string{"http://p1": "odd", "http://p2": "even"},
	}
	s := newTestService(poster, 7)

	s.Conduct(context.Background(), "R1", testMatch())

	report, ok := poster.lastReport()
	assert.True(t, ok, "A result should be reported")
	assert.NotNil(t, report.Winner)
	assert.Equal(t, "P-1", *report.Winner)
	assert.Equal(t, map[string]int{"P-1": 3, "P-2": 0}, report.Score)
	assert.Equal(t, 7, report.DrawnNumber)
	assert.Equal(t, map[string]string{"P-1": "odd", "P-2": "even"}, report.Choices)
}

func TestConductReportsDraw(t *testing.T) {
	poster := &fakePoster{
		choices: map[string]string{"http://p1": "even", "http://p2": "even"},
	}
	s := newTestService(poster, 7)

	s.Conduct(context.Background(), "R1", testMatch())

	report, ok := poster.lastReport()
	assert.True(t, ok)
	assert.Nil(t, report.Winner)
	assert.Equal(t, map[string]int{"P-1": 1, "P-2": 1}, report.Score)
}

func TestConductSingleTimeout(t *testing.T) {
	poster := &fakePoster{
		choices: map[string]string{"http://p1": "even"},
		down:    map[string]bool{"http://p2": true},
	}
	s := newTestService(poster, 7)

	s.Conduct(context.Background(), "R1", testMatch())

	report, ok := poster.lastReport()
	assert.True(t, ok)
	assert.NotNil(t, report.Winner)
	assert.Equal(t, "P-1", *report.Winner, "The responsive player wins regardless of the drawn value")
	assert.Equal(t, map[string]int{"P-1": 3, "P-2": 0}, report.Score)
	assert.Equal(t, map[string]string{"P-1": "even"}, report.Choices)
}

func TestConductDoubleTimeoutStillReports(t *testing.T) {
	poster := &fakePoster{
		down: map[string]bool{"http://p1": true, "http://p2": true},
	}
	s := newTestService(poster, 7)

	s.Conduct(context.Background(), "R1", testMatch())

	report, ok := poster.lastReport()
	assert.True(t, ok, "A double forfeit must still reach the league manager")
	assert.Nil(t, report.Winner)
	assert.Equal(t, map[string]int{"P-1": 0, "P-2": 0}, report.Score)
	assert.Equal(t, "DOUBLE_FORFEIT", report.Outcome)
}

func TestConductInvalidChoiceIsNoResponse(t *testing.T) {
	poster := &fakePoster{
		choices: map[string]string{"http://p1": "odd", "http://p2": "banana"},
	}
	s := newTestService(poster, 7)

	s.Conduct(context.Background(), "R1", testMatch())

	report, ok := poster.lastReport()
	assert.True(t, ok)
	assert.NotNil(t, report.Winner)
	assert.Equal(t, "P-1", *report.Winner, "A malformed choice counts the same as silence")
}

func TestConductUnreportableMatchIsDropped(t *testing.T) {
	poster := &fakePoster{
		choices:   map[string]string{"http://p1": "odd", "http://p2": "even"},
		reportErr: errors.New("league unreachable"),
	}
	s := NewService(Options{
		Transport:     poster,
		Resolver:      NewEvenOddWithDraw(func() int { return 7 }),
		LeagueURL:     "http://league",
		LeagueID:      "league_test",
		InviteTimeout: 100 * time.Millisecond,
		ChoiceTimeout: 200 * time.Millisecond,
		ReportBudget:  100 * time.Millisecond,
		Retry:         retry.Policy{MaxAttempts: 2, Backoff: 10 * time.Millisecond},
	})
	s.SetIdentity("REF-1", "tok-ref-1")

	s.Conduct(context.Background(), "R1", testMatch())

	_, ok := poster.lastReport()
	assert.False(t, ok)
	assert.Empty(t, s.Matches(), "The coordinator instance is discarded either way")
}

func TestHandleRoundConductsAllMatches(t *testing.T) {
	poster := &fakePoster{
		choices: map[string]string{
			"http://p1": "odd", "http://p2": "even",
			"http://p3": "odd", "http://p4": "even",
		},
	}
	s := newTestService(poster, 7)

	s.HandleRound(protocol.RoundAnnouncement{
		RoundID: "R1",
		Matches: []protocol.MatchAssignment{
			testMatch(),
			{
				MatchID:   "R1M2",
				PlayerAID: "P-3", PlayerAEndpoint: "http://p3",
				PlayerBID: "P-4", PlayerBEndpoint: "http://p4",
				RefereeID: "REF-1",
			},
		},
	})

	assert.Eventually(t, func() bool {
		poster.mu.Lock()
		defer poster.mu.Unlock()
		return len(poster.reports) == 2
	}, 2*time.Second, 10*time.Millisecond, "Both matches should report")
}

package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/evenodd/league-manager/pkg/auth"
	"github.com/evenodd/league-manager/pkg/config"
	"github.com/evenodd/league-manager/pkg/protocol"
	"github.com/evenodd/league-manager/pkg/retry"
	"github.com/evenodd/league-manager/pkg/transport"
	"github.com/evenodd/league-manager/services/referee"
)

func main() {
	var cfg config.Referee
	if err := config.Parse(&cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:" + cfg.Port
	}

	transportClient := transport.NewClient(cfg.CallTimeout)
	refereeService := referee.NewService(referee.Options{
		Transport:     transportClient,
		Resolver:      referee.NewEvenOdd(),
		LeagueURL:     cfg.LeagueURL,
		LeagueID:      cfg.LeagueID,
		InviteTimeout: cfg.InviteTimeout,
		ChoiceTimeout: cfg.ChoiceTimeout,
		ReportBudget:  cfg.ReportBudget,
		Retry: retry.Policy{
			MaxAttempts: cfg.RetryAttempts,
			Backoff:     cfg.RetryBackoff,
			MaxBackoff:  5 * time.Second,
		},
	})

	// Register once the server below is up. The league manager may not be
	// reachable yet either, hence the generous retry schedule.
	go func() {
		registration := retry.Policy{MaxAttempts: 10, Backoff: time.Second, MaxBackoff: 10 * time.Second}
		err := retry.Do(context.Background(), registration, func() error {
			req := protocol.RegisterRequest{
				Envelope:             protocol.NewEnvelope(protocol.TypeRegisterRequest, "referee_unregistered", "", cfg.LeagueID),
				Role:                 protocol.RoleReferee,
				DisplayName:          cfg.DisplayName,
				Version:              "1.0.0",
				GameTypes:            []string{protocol.GameType},
				ContactEndpoint:      endpoint,
				MaxConcurrentMatches: 2,
			}
			var resp protocol.RegisterResponse
			if err := transportClient.Post(context.Background(), cfg.LeagueURL, protocol.PathRegister, "", req, &resp); err != nil {
				return err
			}
			refereeService.SetIdentity(resp.ParticipantID, resp.AuthToken)
			return nil
		})
		if err != nil {
			log.Fatalf("Registration failed: %v", err)
		}
		log.Printf("Registered as %s, listening on %s", refereeService.ID(), endpoint)
	}()

	router := gin.Default()

	refereeRouter := router.Group("/referee/v1")
	refereeRouter.Use(auth.AgentMiddleware(refereeService.AuthToken)) // Apply the middleware here

	referee.NewHTTPHandler(referee.HTTPOptions{
		Service: refereeService,
		Router:  refereeRouter,
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"referee_id": refereeService.ID(),
			"registered": refereeService.ID() != "",
		})
	})

	log.Fatal(router.Run(":" + cfg.Port))
}

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
	"github.com/evenodd/league-manager/services/player"
)

func main() {
	var cfg config.Player
	if err := config.Parse(&cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:" + cfg.Port
	}

	transportClient := transport.NewClient(cfg.CallTimeout)
	playerService := player.NewService(cfg.LeagueID, player.RandomChooser())

	go func() {
		registration := retry.Policy{MaxAttempts: 10, Backoff: time.Second, MaxBackoff: 10 * time.Second}
		err := retry.Do(context.Background(), registration, func() error {
			req := protocol.RegisterRequest{
				Envelope:             protocol.NewEnvelope(protocol.TypeRegisterRequest, "player_unregistered", "", cfg.LeagueID),
				Role:                 protocol.RolePlayer,
				DisplayName:          cfg.DisplayName,
				Version:              "1.0.0",
				GameTypes:            []string{protocol.GameType},
				ContactEndpoint:      endpoint,
				MaxConcurrentMatches: 1,
			}
			var resp protocol.RegisterResponse
			if err := transportClient.Post(context.Background(), cfg.LeagueURL, protocol.PathRegister, "", req, &resp); err != nil {
				return err
			}
			playerService.SetIdentity(resp.ParticipantID, resp.AuthToken)
			return nil
		})
		if err != nil {
			log.Fatalf("Registration failed: %v", err)
		}
		log.Printf("Registered as %s, listening on %s", playerService.ID(), endpoint)
	}()

	router := gin.Default()

	playerRouter := router.Group("/player/v1")

	standingsRouter := router.Group("/player/v1")
	standingsRouter.Use(auth.AgentMiddleware(playerService.AuthToken)) // Apply the middleware here

	player.NewHTTPHandler(player.HTTPOptions{
		Service:         playerService,
		Router:          playerRouter,
		StandingsRouter: standingsRouter,
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"player_id":  playerService.ID(),
			"registered": playerService.ID() != "",
		})
	})

	log.Fatal(router.Run(":" + cfg.Port))
}

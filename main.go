package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/evenodd/league-manager/pkg/auth"
	"github.com/evenodd/league-manager/pkg/config"
	"github.com/evenodd/league-manager/pkg/transport"
	"github.com/evenodd/league-manager/repos/registry"
	"github.com/evenodd/league-manager/repos/resend"
	"github.com/evenodd/league-manager/services/league"
	"github.com/evenodd/league-manager/services/standings"
)

func main() {
	var cfg config.League
	if err := config.Parse(&cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	registryService := registry.NewService(cfg.PlayerQuota, cfg.RefereeQuota, cfg.RegistrationPolicy)
	ledger := standings.NewService()
	transportClient := transport.NewClient(cfg.CallTimeout)

	var reporter league.Reporter
	if cfg.ResendKey != "" && cfg.OperatorEmail != "" {
		reporter = resend.NewService(cfg.ResendKey, cfg.OperatorEmail)
	}

	leagueService := league.NewService(league.Options{
		Registry:     registryService,
		Ledger:       ledger,
		Transport:    transportClient,
		Reporter:     reporter,
		LeagueID:     cfg.LeagueID,
		RoundPause:   cfg.RoundPause,
		RoundTimeout: cfg.RoundTimeout,
	})

	router := gin.Default()

	if cfg.CORSHosts != "" {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = strings.Split(cfg.CORSHosts, ",")
		corsConfig.AllowCredentials = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Access-Control-Allow-Origin"}
		router.Use(cors.New(corsConfig))
	}

	leagueRouter := router.Group("/league/v1")

	resultRouter := router.Group("/league/v1")
	resultRouter.Use(auth.Middleware(registryService)) // Apply the middleware here

	league.NewHTTPHandler(league.HTTPOptions{
		Service:    leagueService,
		Router:     leagueRouter,
		AuthRouter: resultRouter,
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":              "healthy",
			"players_registered":  len(registryService.Players()),
			"referees_registered": len(registryService.Referees()),
			"tournament_started":  leagueService.Started(),
		})
	})

	log.Printf("League manager %s listening on :%s", cfg.LeagueID, cfg.Port)
	log.Fatal(router.Run(":" + cfg.Port))
}

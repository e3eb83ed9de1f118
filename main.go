package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jkobber/bubble-quiz/auth"
	"github.com/jkobber/bubble-quiz/config"
	"github.com/jkobber/bubble-quiz/crypto"
	"github.com/jkobber/bubble-quiz/domain"
	"github.com/jkobber/bubble-quiz/game"
	"github.com/jkobber/bubble-quiz/gateway"
	"github.com/jkobber/bubble-quiz/logger"
	"github.com/jkobber/bubble-quiz/migrations"
	"github.com/jkobber/bubble-quiz/storage"
	"github.com/rs/zerolog"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

// seedQuestions imports the CSV at path into the default collection when the
// store holds no questions yet.
func seedQuestions(ctx context.Context, repo *storage.PostgresRepo, path string, log zerolog.Logger) error {
	if path == "" {
		return nil
	}
	count, err := repo.CountQuestions(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	questions, err := storage.ParseQuestionsCSV(f)
	if err != nil {
		return err
	}
	n, err := repo.ImportQuestions(ctx, storage.DefaultCollection, nil, questions)
	if err != nil {
		return err
	}
	log.Info().Int("questions", n).Str("file", path).Msg("question store seeded")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Setup(false).Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.Setup(cfg.Debug)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	// Dependencies
	pgRepo, err := storage.NewPostgresRepo(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pgRepo.Close()

	if err := seedQuestions(ctx, pgRepo, cfg.QuestionsCSV, log); err != nil {
		log.Error().Err(err).Str("file", cfg.QuestionsCSV).Msg("question seeding failed")
	}

	passwordHasher := crypto.DefaultArgon2idHasher()
	tokenManager := crypto.NewJWTManager(cfg.JWTKey, cfg.TokenMaxAge)

	authService := auth.NewService(pgRepo, passwordHasher, tokenManager)
	authHandler := auth.NewAuthHandler(authService, cfg.TokenMaxAge)

	hub := gateway.NewHub(logger.Component("hub"))
	coordOpts := game.DefaultOptions()
	coordOpts.Logger = logger.Component("game")
	coord := game.NewCoordinator(
		game.NewRegistry(),
		game.NewSelector(pgRepo),
		pgRepo,
		hub,
		game.NewTickerCreator(),
		game.RandomCodes{},
		coordOpts,
	)

	gwOpts := gateway.DefaultOptions()
	gwOpts.PublicURL = cfg.PublicURL
	gw := gateway.New(coord, hub, pgRepo, gwOpts, logger.Component("gateway"))

	r := CreateServer(cfg.AllowedOrigins)

	{
		auth := r.Group("/auth")
		auth.POST("/signup", authHandler.SignupHandler)
		auth.POST("/login", authHandler.LoginHandler)
		auth.POST("/logout", authHandler.LogoutHandler)
		auth.GET("/refresh", authHandler.RefreshSessionHandler)
	}

	r.GET("/ws", authHandler.OptionalAuthMiddleware(), gw.ServeWS)
	r.GET("/rooms", gw.ListRoomsHandler)
	r.GET("/rooms/:code/qr", gw.RoomQRHandler)
	r.GET("/collections", gw.ListCollectionsHandler)
	r.GET("/tags", gw.ListTagsHandler)

	{
		admin := r.Group("/admin")
		admin.Use(authHandler.RequireAuthMiddleware(time.Second*2), auth.RequireRole(domain.RoleAdmin))
		admin.DELETE("/rooms/:code", gw.AdminDeleteRoomHandler)
		admin.POST("/questions/import", gw.ImportQuestionsHandler)
		admin.DELETE("/questions/:id", gw.DeleteQuestionHandler)
	}

	go coord.RunJanitor(ctx)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("SIGTERM or SIGINT received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	coord.Shutdown()
	log.Info().Msg("shutdown complete")
}

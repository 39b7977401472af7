package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"triviagen"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := triviagen.LoadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := triviagen.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().
		Str("port", cfg.Port).
		Str("model", cfg.Generation.Model).
		Str("question_log", cfg.QuestionLogPath).
		Str("stats", cfg.StatsPath).
		Msg("Starting trivia server")

	questions, err := triviagen.NewCSVQuestionLog(cfg.QuestionLogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open question log")
	}
	stats, err := triviagen.NewJSONStatsFile(cfg.StatsPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stats file")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := triviagen.NewMetrics(reg)

	maker := triviagen.NewQuestionMaker(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Generation)
	quiz := triviagen.NewQuizGenerator(maker, questions, log)
	quiz.SetMaxAttempts(cfg.MaxAttempts)
	quiz.SetMetrics(metrics)

	if cfg.TranscriptDir != "" {
		transcript, err := triviagen.NewTranscript(cfg.TranscriptDir)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to open generation transcript, continuing without it")
		} else {
			quiz.SetTranscript(transcript)
			defer transcript.Close()
		}
	}

	server := &Server{
		quiz:     quiz,
		stats:    stats,
		sessions: newSessionStore(cfg.SessionSecret, log),
		metrics:  metrics,
		log:      log,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(server, cfg, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// In-flight generations may need the full attempt budget to finish.
	grace := time.Duration(cfg.MaxAttempts)*cfg.Generation.Timeout + 5*time.Second
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	log.Info().Msg("Shutdown complete")
}

func newSessionStore(secret string, log zerolog.Logger) *sessions.CookieStore {
	key := []byte(secret)
	if secret == "" {
		log.Warn().Msg("SESSION_SECRET not set, sessions will not survive a restart")
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// newRouter wires middleware and routes.
func newRouter(s *Server, cfg *triviagen.Config, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(s.log), metricsMiddleware(s.metrics))

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	limiter := newClientLimiter(cfg.GenerateRatePerMinute, cfg.GenerateRateBurst)
	router.POST("/generate-question", limiter.Middleware(), s.handleGenerateQuestion)
	router.POST("/check-answer", s.handleCheckAnswer)
	router.GET("/stats", s.handleStats)
	router.POST("/update-stats", s.handleUpdateStats)

	return router
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cafescout/cafe-scout-api/internal/adapters/httpapi"
	memcounterstore "github.com/cafescout/cafe-scout-api/internal/adapters/memory/counterstore"
	meminteractionrepo "github.com/cafescout/cafe-scout-api/internal/adapters/memory/interactionrepo"
	memmigrationmark "github.com/cafescout/cafe-scout-api/internal/adapters/memory/migrationmark"
	memsearchrepo "github.com/cafescout/cafe-scout-api/internal/adapters/memory/searchrepo"
	"github.com/cafescout/cafe-scout-api/internal/adapters/openai"
	postgres "github.com/cafescout/cafe-scout-api/internal/adapters/postgres"
	pginteractionrepo "github.com/cafescout/cafe-scout-api/internal/adapters/postgres/interactionrepo"
	pgmigrationmark "github.com/cafescout/cafe-scout-api/internal/adapters/postgres/migrationmark"
	pgsearchrepo "github.com/cafescout/cafe-scout-api/internal/adapters/postgres/searchrepo"
	"github.com/cafescout/cafe-scout-api/internal/adapters/reddit"
	rediscounterstore "github.com/cafescout/cafe-scout-api/internal/adapters/redis/counterstore"
	"github.com/cafescout/cafe-scout-api/internal/app/enrich"
	"github.com/cafescout/cafe-scout-api/internal/app/interactions"
	"github.com/cafescout/cafe-scout-api/internal/app/ratelimit"
	"github.com/cafescout/cafe-scout-api/internal/app/searches"
	"github.com/cafescout/cafe-scout-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/cafescout/cafe-scout-api/internal/platform/clock"
	"github.com/cafescout/cafe-scout-api/internal/platform/config"
	"github.com/cafescout/cafe-scout-api/internal/platform/memocache"
	counterstoreport "github.com/cafescout/cafe-scout-api/internal/ports/out/counterstore"
	interactionrepoport "github.com/cafescout/cafe-scout-api/internal/ports/out/interactionrepo"
	migrationmarkport "github.com/cafescout/cafe-scout-api/internal/ports/out/migrationmark"
	searchrepoport "github.com/cafescout/cafe-scout-api/internal/ports/out/searchrepo"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "cafe-scout-api").Logger()

	port := getenv("PORT", "8080")

	appCfg, err := config.LoadAppConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid app config")
	}

	// Auth configuration:
	// - Production: require JWT_* env vars and verify bearer tokens
	// - Local dev: set AUTH_MODE=dev to resolve identity from X-Debug-Subject
	authMode := getenv("AUTH_MODE", "jwt")
	var identityMW func(http.Handler) http.Handler
	switch authMode {
	case "dev":
		identityMW = httpapi.NewDevIdentityMiddleware(getenv("DEV_SUBJECT", "dev|local"), appCfg.IPHashSalt)
	default:
		jwtCfg, err := config.LoadJWTConfigFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid auth config")
		}
		identityMW = httpapi.NewIdentityMiddleware(jwtverifier.New(jwtCfg), appCfg.IPHashSalt)
	}

	clk := platformclock.NewSystemClock()

	// The rate-limit counter store and the record repositories are selected
	// independently: counters want fast expiring storage, records want
	// durable storage.
	var counters counterstoreport.Store
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		defer client.Close()
		counters = rediscounterstore.NewStore(client, 2*appCfg.RateLimitWindow)
		log.Info().Str("addr", addr).Msg("rate-limit counters on redis")
	} else {
		counters = memcounterstore.NewStore()
		log.Info().Msg("rate-limit counters in memory")
	}

	var (
		searchRepo      searchrepoport.Repository
		interactionRepo interactionrepoport.Repository
		markStore       migrationmarkport.Store
	)
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pool, err := postgres.NewPool(context.Background(), dsn, postgres.PoolOptions{})
		if err != nil {
			log.Fatal().Err(err).Msg("invalid postgres config")
		}
		defer pool.Close()

		searchRepo = pgsearchrepo.NewRepo(pool)
		interactionRepo = pginteractionrepo.NewRepo(pool)
		markStore = pgmigrationmark.NewStore(pool)
		log.Info().Msg("records on postgres")
	} else {
		searchRepo = memsearchrepo.NewRepo()
		interactionRepo = meminteractionrepo.NewRepo()
		markStore = memmigrationmark.NewStore()
		log.Info().Msg("records in memory")
	}

	limiter := ratelimit.NewService(counters, clk, ratelimit.Config{
		Max:    appCfg.RateLimitMax,
		Window: appCfg.RateLimitWindow,
	})
	searchesSvc := searches.NewService(searchRepo)
	interactionsSvc := interactions.NewService(interactionRepo, markStore, limiter)

	llmClient := openai.New(openai.Config{
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   os.Getenv("OPENAI_MODEL"),
	})
	socialSearcher := reddit.New(reddit.Config{
		BaseURL:   os.Getenv("REDDIT_BASE_URL"),
		UserAgent: os.Getenv("REDDIT_USER_AGENT"),
	})
	enrichSvc := enrich.NewService(llmClient, socialSearcher, clk, enrich.Config{
		ImageCache: memocache.Config{
			TTL:            appCfg.ImageCacheTTL,
			SweepThreshold: appCfg.ImageCacheSweepThreshold,
		},
		MentionsCache: memocache.Config{
			TTL:            appCfg.MentionsCacheTTL,
			SweepThreshold: appCfg.MentionsCacheSweepThreshold,
		},
		ReasonsCache: memocache.Config{
			TTL:            appCfg.ReasonsCacheTTL,
			SweepThreshold: appCfg.ReasonsCacheSweepThreshold,
		},
		SocialQueryTimeout: appCfg.SocialQueryTimeout,
	})

	api := httpapi.NewServer(limiter, searchesSvc, interactionsSvc, enrichSvc, appCfg.IPHashSalt, log)
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		IdentityMiddleware: identityMW,
		RequestLogger:      httpapi.NewRequestLogger(log),
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", port).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

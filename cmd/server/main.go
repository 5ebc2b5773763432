package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/campus-portal/internal/config"
	"github.com/iliyamo/campus-portal/internal/database"
	"github.com/iliyamo/campus-portal/internal/handler"
	"github.com/iliyamo/campus-portal/internal/logging"
	"github.com/iliyamo/campus-portal/internal/middleware"
	"github.com/iliyamo/campus-portal/internal/queue"
	"github.com/iliyamo/campus-portal/internal/repository"
	"github.com/iliyamo/campus-portal/internal/repository/memory"
	"github.com/iliyamo/campus-portal/internal/router"
	"github.com/iliyamo/campus-portal/internal/service"
)

// stores bundles one backend's repositories behind the service interfaces.
type stores struct {
	users    service.UserStore
	tokens   service.TokenStore
	ledger   service.LedgerStore
	bookings service.BookingStore
	notes    service.NotificationStore
	db       *sql.DB
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.StoreBackend == config.BackendMemory {
		m := memory.New()
		return stores{users: m.Users(), tokens: m.Tokens(), ledger: m.Ledger(), bookings: m.Bookings(), notes: m.Notifications()}, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return stores{}, err
	}
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return stores{}, err
		}
	}
	return stores{
		users:    repository.NewUserRepo(db),
		tokens:   repository.NewTokenRepo(db),
		ledger:   repository.NewLedgerRepo(db),
		bookings: repository.NewBookingRepo(db),
		notes:    repository.NewNotificationRepo(db),
		db:       db,
	}, nil
}

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg, err := config.Load()
	if err != nil {
		logging.Init("campus-portal", "dev", "info")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init("campus-portal", cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("open store failed")
	}
	if st.db != nil {
		defer st.db.Close()
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn().Msg("redis unavailable: rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	var pub service.Publisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		pub = service.NewAMQPPublisher(cfg.RabbitURL)
		go func() {
			if err := queue.StartAuditConsumer(ctx, cfg.RabbitURL, cfg.AuditLogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("audit consumer stopped")
			}
		}()
	}

	roster := service.NewRosterService(service.RosterConfig{
		JWTSecret:        cfg.JWTSecret,
		AccessTTLMin:     cfg.AccessTTLMin,
		RefreshTTLDays:   cfg.RefreshTTLDays,
		BcryptCost:       cfg.BcryptCost,
		AllowStaffSignup: cfg.AllowStaffSignup,
	}, st.users, st.tokens, st.ledger, st.bookings, pub)
	ledger := service.NewLedgerService(st.users, st.ledger, pub)
	bookings := service.NewBookingService(st.bookings, service.CooldownPolicy{
		StudyRoom: cfg.StudyRoomCooldown,
		Default:   cfg.DefaultCooldown,
	}, pub)
	notes := service.NewNotificationService(st.users, st.notes, pub)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())

	var health *handler.HealthHandler
	if st.db != nil {
		health = handler.NewHealthHandler(st.db)
	} else {
		health = handler.NewHealthHandler(nil)
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	notifications := handler.NewNotificationHandler(notes)

	router.RegisterRoutes(e, health)
	router.RegisterAuth(e, handler.NewAuthHandler(roster, cfg.JWTSecret))
	router.RegisterPublic(e, handler.NewLeaderboardHandler(ledger), middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterMember(e, router.MemberHandlers{
		Me:            handler.NewMeHandler(roster, ledger, bookings),
		Facilities:    handler.NewFacilityHandler(bookings),
		Notifications: notifications,
	}, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, handler.NewAdminHandler(roster, ledger), notifications, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("backend", cfg.StoreBackend).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

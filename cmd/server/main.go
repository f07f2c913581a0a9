package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/classroom-booking/internal/booking"
	"github.com/iliyamo/classroom-booking/internal/cache"
	"github.com/iliyamo/classroom-booking/internal/catalog"
	"github.com/iliyamo/classroom-booking/internal/config"
	"github.com/iliyamo/classroom-booking/internal/database"
	"github.com/iliyamo/classroom-booking/internal/handler"
	"github.com/iliyamo/classroom-booking/internal/lock"
	appmw "github.com/iliyamo/classroom-booking/internal/middleware"
	"github.com/iliyamo/classroom-booking/internal/queue"
	"github.com/iliyamo/classroom-booking/internal/repository"
	"github.com/iliyamo/classroom-booking/internal/router"
	queue_publisher "github.com/iliyamo/classroom-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: snapshot cache rebuilds every read, lock falls back to in-process")
	}

	cacheCfg := config.LoadSnapshotCacheConfig()
	var medium cache.Medium
	if rdb != nil {
		medium = cache.NewRedisMedium(rdb)
	}
	snapshots := cache.New(medium, cacheCfg)

	lockCfg := config.LoadLockConfig()
	var locker lock.Locker
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, lockCfg)
	} else {
		locker = lock.NewMemoryLocker()
	}

	sessionRepo := repository.NewSessionRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	billingRepo := repository.NewBillingRepo(db)
	studentRepo := repository.NewStudentRepo(db)

	svc := booking.NewService(
		sessionRepo, reservationRepo, billingRepo,
		locker, snapshots, queue_publisher.Notifier{}, lockCfg.Wait,
	)
	cat := catalog.New(sessionRepo, snapshots)

	e := echo.New()
	e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, studentRepo))
	router.RegisterBrowse(e, handler.NewBrowseHandler(cat, snapshots, reservationRepo))
	router.RegisterReservations(e,
		handler.NewReservationHandler(svc, reservationRepo),
		handler.NewBillingHandler(snapshots, billingRepo),
		cfg.JWTSecret,
	)

	// Background consumer writing confirmation logs; reconnects forever.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"seat-reservation-engine/config"
	"seat-reservation-engine/internal/clock"
	"seat-reservation-engine/internal/database"
	"seat-reservation-engine/internal/handler"
	"seat-reservation-engine/internal/inventory"
	"seat-reservation-engine/internal/monitoring"
	"seat-reservation-engine/internal/queue"
	"seat-reservation-engine/internal/repository"
	"seat-reservation-engine/internal/service"
	"seat-reservation-engine/internal/sweeper"
	"seat-reservation-engine/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := inventory.NewRedisStore(rdb)
	clk := clock.NewSystem()

	sectionRepo := repository.NewSectionRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	var issueQueue queue.TicketIssueQueue
	if cfg.Engine.QueueBackend == "redis" {
		issueQueue, err = queue.NewRedisStreamTicketQueue(rdb, "", nil)
		if err != nil {
			log.Fatalf("Failed to initialize ticket queue: %v", err)
		}
	} else {
		issueQueue = queue.NewTicketIssueQueue(1024)
	}

	reservationService := service.NewReservationService(
		sectionRepo, bookingRepo, store, issueQueue, clk,
		service.ReservationConfig{
			LockTTL:            cfg.Engine.LockTTL,
			ConvenienceFeeRate: cfg.Engine.ConvenienceFeeRate,
			PlatformFeeRate:    cfg.Engine.PlatformFeeRate,
		},
	)
	sectionService := service.NewSectionService(sectionRepo, store)
	ticketService := service.NewTicketService(ticketRepo, clk)
	reportService := service.NewReportService(sectionRepo, bookingRepo, ticketRepo, store)

	// 啟動時對帳：從 booking 記錄重建座位計數
	if err := reportService.Reconcile(ctx); err != nil {
		log.Fatalf("Failed to warm up inventory: %v", err)
	}

	ticketWorker := worker.NewTicketWorker(ticketRepo, issueQueue)
	if err := ticketWorker.Start(ctx); err != nil {
		log.Fatalf("Failed to start ticket worker: %v", err)
	}

	reclaimSweeper := sweeper.NewSweeper(bookingRepo, store, clk, cfg.Engine.SweepInterval, cfg.Engine.SweepBatch)
	reclaimSweeper.Start(ctx)

	monitoring.StartGoroutineCollector()

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.NewBookingHandler(reservationService).RegisterRoutes(router)
	handler.NewSectionHandler(sectionService).RegisterRoutes(router)
	handler.NewTicketHandler(ticketService).RegisterRoutes(router)
	handler.NewReportHandler(reportService).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"cleanbook/internal/config"
	"cleanbook/internal/database"
	"cleanbook/internal/middleware"
	"cleanbook/internal/modules/booking"
	"cleanbook/internal/modules/payment"
	"cleanbook/internal/notification"
	jwtsvc "cleanbook/internal/pkg/jwt"
	"cleanbook/internal/pkg/mq"
	"cleanbook/internal/pkg/obs"
	"cleanbook/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, "cleanbook-api", cfg.OTLPEndpoint, cfg.AppEnv)
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ledger := repository.NewReservationRepository(db)
	clock := booking.SystemClock(cfg.Location)
	hub := notification.NewHub()

	var notifier booking.Notifier = notification.NewLogNotifier()
	if cfg.AMQPURL != "" {
		pub, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("amqp publisher: %v", err)
		}
		defer pub.Close()
		notifier = notification.NewAMQPNotifier(pub)

		cons, err := mq.NewConsumer(cfg.AMQPURL, cfg.AMQPExchange, cfg.PaymentQueue, payment.RoutingKeys)
		if err != nil {
			log.Fatalf("amqp consumer: %v", err)
		}
		defer cons.Close()
		paymentSvc := payment.NewService(ledger, log.Printf)
		if err := payment.NewConsumer(paymentSvc, cons).Run(ctx); err != nil {
			log.Fatalf("payment consumer: %v", err)
		}
	}

	bookingService := booking.NewService(ledger, notifier, hub, clock)
	bookingHandler := booking.NewHandler(bookingService)
	wsHandler := notification.NewWSHandler(hub)

	sweeper := booking.NewSweeper(ledger, clock)
	if stopSweep := sweeper.Schedule(ctx, booking.SweepConfig{
		Interval: cfg.SweepInterval,
		Enabled:  cfg.SweepEnabled,
	}); stopSweep != nil {
		defer close(stopSweep)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), gin.Logger(), middleware.ErrorLogger(), middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		bookingHandler.RegisterPublicRoutes(v1)
		v1.GET("/services/:id/slots/ws", wsHandler.HandleSlotStream)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			bookingHandler.RegisterRoutes(protected)

			admin := protected.Group("/")
			admin.Use(middleware.AdminOnly())
			bookingHandler.RegisterAdminRoutes(admin)
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("http server listening addr=%s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error=%v", err)
	}
	hub.Close()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("tracer shutdown error=%v", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"

	"ms-campus/internal/analytics"
	"ms-campus/internal/analytics/analytics_api"
	"ms-campus/internal/auth"
	cart_api "ms-campus/internal/cart/cart_api"
	cartredis "ms-campus/internal/cart/redis"
	cart "ms-campus/internal/cart/service"
	"ms-campus/internal/clock"
	"ms-campus/internal/config"
	"ms-campus/internal/database"
	"ms-campus/internal/database/migrations"
	event_db "ms-campus/internal/events/db"
	"ms-campus/internal/events/event_api"
	eventredis "ms-campus/internal/events/redis"
	events "ms-campus/internal/events/service"
	"ms-campus/internal/kafka"
	"ms-campus/internal/logger"
	market_db "ms-campus/internal/marketplace/db"
	"ms-campus/internal/marketplace/item_api"
	marketplace "ms-campus/internal/marketplace/service"
	"ms-campus/internal/media"
	"ms-campus/internal/media/media_api"
	"ms-campus/internal/order"
	order_db "ms-campus/internal/order/db"
	"ms-campus/internal/order/discount"
	"ms-campus/internal/order/order_api"
	orderredis "ms-campus/internal/order/redis"
	"ms-campus/internal/payment/storage"
	"ms-campus/internal/sse"
	ticket_db "ms-campus/internal/tickets/db"
	qr "ms-campus/internal/tickets/qr_genrator"
	tickets "ms-campus/internal/tickets/service"
	"ms-campus/internal/tickets/ticket_api"
	user_db "ms-campus/internal/users/db"
	users "ms-campus/internal/users/service"
	"ms-campus/internal/users/user_api"
	"ms-campus/internal/utils"
)

const (
	tokenCacheTTL   = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
	consumerGroup   = "campus-orders"
)

func newVerifier(ctx context.Context, cfg *config.Config, rdb *redis.Client, log *logger.Logger) (auth.TokenVerifier, error) {
	var verifier auth.TokenVerifier
	if cfg.Auth.OIDCIssuer != "" {
		oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.ClientID)
		if err != nil {
			return nil, err
		}
		verifier = oidcVerifier
		log.Info("AUTH", fmt.Sprintf("Verifying tokens issued by %s", cfg.Auth.OIDCIssuer))
	} else {
		verifier = auth.NewHMACVerifier(cfg.Auth.DevJWTSecret)
		log.Warn("AUTH", "OIDC_ISSUER not set, accepting development HS256 tokens")
	}
	return auth.NewCachingVerifier(rdb, verifier, tokenCacheTTL), nil
}

// requestLogger logs every request with its status and latency.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, strconv.Itoa(ww.Status()), time.Since(start).String())
		})
	}
}

func healthHandler(db *bun.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		h := database.CheckHealth(ctx, db, rdb)
		status := http.StatusOK
		if !h.Healthy() {
			status = http.StatusServiceUnavailable
		}
		utils.WriteJSON(w, status, h)
	}
}

func main() {
	cfg, loadedDotEnv, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	minLevel := logger.INFO
	if cfg.Log.Debug {
		minLevel = logger.DEBUG
	}
	log := logger.NewLogger(logger.Options{Dir: cfg.Log.Dir, MinLevel: minLevel})
	defer log.Close()

	log.Info("APP", "Starting campus service initialization")
	if loadedDotEnv {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	} else {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	bunDB, err := database.ConnectPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.DSN, log); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("REDIS", err.Error())
	}
	defer redisClient.Close()

	// --- Messaging ---
	var (
		publisher kafka.Publisher
		loopback  *kafka.LoopbackPublisher
	)
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		publisher = producer
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.AllTopics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		log.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		loopback = kafka.NewLoopbackPublisher(log)
		publisher = loopback
		log.Warn("KAFKA", "Kafka disabled, domain events are delivered in-process only")
	}

	clk := clock.NewSystem()

	// --- Services ---
	userService := users.NewUserService(&user_db.DB{Bun: bunDB}, clk, log)

	ticketDB := &ticket_db.DB{Bun: bunDB}
	eventService := events.NewEventService(&event_db.DB{Bun: bunDB}, eventredis.NewProgressStore(redisClient), ticketDB, publisher, clk, log)
	ticketService := tickets.NewTicketService(ticketDB, eventService, qr.NewQRGenerator(cfg.Auth.QRSecretKey), clk, log, cfg.Checkout.Currency)
	marketService := marketplace.NewMarketplaceService(&market_db.DB{Bun: bunDB}, clk, log, cfg.Checkout.Currency)
	cartService := cart.NewCartService(cartredis.NewCartStore(redisClient, cfg.Checkout.CartTTL), ticketService, marketService, clk, log)
	discountService := discount.NewDiscountService(&discount.Store{Bun: bunDB}, eventService, clk, log)
	analyticsService := analytics.NewAnalyticsService(analytics.NewDB(bunDB), eventService, eventService, log)
	salesEmitter := sse.NewSalesEmitter()

	var gateway order.PaymentGateway
	if cfg.StripeEnabled() {
		gateway = order.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL, log)
		log.Info("PAYMENT", "Stripe checkout enabled")
	} else {
		log.Warn("PAYMENT", "STRIPE_SECRET_KEY not set, only free orders can be checked out")
	}

	holdLocks := orderredis.NewRedis(redisClient, log)
	orderService := order.NewOrderService(order.Deps{
		DB:       &order_db.DB{Bun: bunDB},
		Redis:    holdLocks,
		Cart:     cartService,
		Tickets:  ticketService,
		Items:    marketService,
		Promos:   discountService,
		Events:   eventService,
		Payments: gateway,
		Ledger:   storage.NewStore(bunDB, log),
		Kafka:    publisher,
		Sales:    salesEmitter,
		Clock:    clk,
		Logger:   log,
	}, cfg.Checkout.HoldTTL, cfg.Checkout.LockTTL)

	var mediaStore media.ObjectStore
	publicBase := cfg.Media.PublicBaseURL
	if cfg.MediaEnabled() {
		s3Store, err := media.NewS3Storage(ctx, cfg.Media.Bucket, cfg.Media.Region)
		if err != nil {
			log.Fatal("MEDIA", err.Error())
		}
		mediaStore = s3Store
		if publicBase == "" {
			publicBase = s3Store.BucketURL()
		}
		log.Info("MEDIA", fmt.Sprintf("Image uploads go to bucket %s", cfg.Media.Bucket))
	} else {
		log.Warn("MEDIA", "MEDIA_BUCKET not set, image uploads are disabled")
	}
	mediaService := media.NewMediaService(mediaStore, publicBase, cfg.Media.MaxBytes, cfg.Media.PresignTTL, clk, log)

	// --- Background work ---
	if loopback != nil {
		loopback.Subscribe(kafka.TopicEventCancelled, orderService.HandleEventCancelled)
	} else {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, kafka.TopicEventCancelled, consumerGroup, log)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx, orderService.HandleEventCancelled); err != nil {
				log.Error("KAFKA", fmt.Sprintf("event cancellation consumer stopped: %v", err))
			}
		}()
	}

	holdLocks.EnableExpiryNotifications(ctx)
	go func() {
		if err := holdLocks.SubscribeHoldExpiry(ctx, cfg.Redis.DB, orderService.OnHoldExpired); err != nil {
			log.Error("REDIS", fmt.Sprintf("hold expiry subscription stopped: %v", err))
		}
	}()
	go orderService.RunSweeper(ctx, cfg.Checkout.SweepInterval)

	// --- HTTP ---
	verifier, err := newVerifier(ctx, cfg, redisClient, log)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}
	requireAuth := auth.Middleware(verifier, userService.EnsureUser, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(bunDB, redisClient))

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Optional(verifier))

		user_api.NewHandler(userService, log).RegisterRoutes(r, requireAuth)
		event_api.NewHandler(eventService, log).RegisterRoutes(r, requireAuth)
		ticket_api.NewHandler(ticketService, log).RegisterRoutes(r, requireAuth)
		item_api.NewHandler(marketService, log).RegisterRoutes(r, requireAuth)
		cart_api.NewHandler(cartService, log).RegisterRoutes(r, requireAuth)
		order_api.NewHandler(orderService, discountService, log).RegisterRoutes(r, requireAuth)
		order_api.NewSSEHandler(log, salesEmitter, eventService).RegisterRoutes(r, requireAuth)
		analytics_api.NewHandler(analyticsService, log).RegisterRoutes(r, requireAuth)
		media_api.NewHandler(mediaService, log).RegisterRoutes(r, requireAuth)
	})
	log.Info("ROUTER", "API routes registered under /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Campus service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Campus service shutdown complete")
	}
}

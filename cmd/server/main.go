// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iyunix/go-lostfound/internal/config"
	"github.com/iyunix/go-lostfound/internal/handlers"
	"github.com/iyunix/go-lostfound/internal/idempotency"
	"github.com/iyunix/go-lostfound/internal/metrics"
	"github.com/iyunix/go-lostfound/internal/notify"
	"github.com/iyunix/go-lostfound/internal/ratelimit"
	"github.com/iyunix/go-lostfound/internal/realtime"
	"github.com/iyunix/go-lostfound/internal/repository"
	"github.com/iyunix/go-lostfound/internal/repository/conversation"
	"github.com/iyunix/go-lostfound/internal/repository/item"
	"github.com/iyunix/go-lostfound/internal/repository/message"
	"github.com/iyunix/go-lostfound/internal/repository/user"
	"github.com/iyunix/go-lostfound/internal/repository/verification"
	"github.com/iyunix/go-lostfound/internal/services"
	"github.com/iyunix/go-lostfound/internal/services/admin_services"
	"github.com/iyunix/go-lostfound/internal/services/chat"
	"github.com/iyunix/go-lostfound/internal/services/user_services"
	"github.com/iyunix/go-lostfound/internal/storage"
	"github.com/iyunix/go-lostfound/internal/telemetry"
)

type notifier interface {
	chat.Notifier
	Close() error
}

func main() {
	cfg := config.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	logger := services.NewLogger("lostfound")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStart()

	shutdownTracing, err := telemetry.Init(startCtx, cfg.OTELEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize tracing: %v", err)
	}

	db, err := repository.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}

	// --- Repositories ---
	userRepo := user.NewGormUserRepository(db)
	itemRepo := item.NewItemRepository(db)
	conversationRepo := conversation.NewConversationRepository(db)
	messageRepo := message.NewMessageRepository(db)

	// --- Infrastructure ---
	reg := metrics.New()
	hub := realtime.NewHub(realtime.DefaultBuffer, realtime.WithDropHook(reg.FeedDropped))

	var closers []func()
	var redisClient *redis.Client
	var idem chat.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err = idempotency.NewRedisClient(startCtx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("FATAL: Failed to connect to Redis: %v", err)
		}
		idem = idempotency.NewRedisStore(redisClient)
		log.Printf("[Redis] Idempotency keys and rate limits shared via %s", redisClient.Options().Addr)
	} else {
		memIdem := idempotency.NewMemoryStore()
		idem = memIdem
		closers = append(closers, memIdem.Close)
	}

	var events notifier = notify.Noop{}
	if cfg.KafkaBrokers != "" {
		kn, err := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize Kafka notifier: %v", err)
		}
		events = kn
		log.Printf("[Kafka] Publishing new-message events to %q", cfg.KafkaTopic)
	}

	var images services.ImageStore
	imageStore, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	switch {
	case errors.Is(err, storage.ErrDisabled):
		log.Println("[Storage] S3_ENDPOINT not set; item photos are disabled")
	case err != nil:
		log.Fatalf("FATAL: Failed to initialize image storage: %v", err)
	default:
		if err := imageStore.EnsureBucket(startCtx); err != nil {
			log.Fatalf("FATAL: Failed to prepare bucket %q: %v", cfg.S3Bucket, err)
		}
		images = imageStore
	}

	// --- Services ---
	chatConfig := chat.DefaultConfig()
	chatConfig.TypingTimeout = cfg.TypingTimeout
	chatService, err := chat.NewService(chatConfig, chat.Dependencies{
		Conversations: conversationRepo,
		Messages:      messageRepo,
		Items:         itemRepo,
		Users:         userRepo,
		Feed:          hub,
		Idempotency:   idem,
		Notifier:      events,
		Metrics:       reg,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Chat Service: %v", err)
	}

	userService := user_services.NewUserService(userRepo, cfg.JWTSecretKey, cfg.AdminEmail, logger)
	itemService := services.NewItemService(itemRepo, images, logger)
	adminService := admin_services.NewAdminService(userRepo, itemRepo, itemService)

	var codeSender user_services.CodeSender = user_services.LogCodeSender{Logger: logger}
	if cfg.KafkaBrokers != "" {
		ks, err := notify.NewKafkaCodeSender(cfg.KafkaBrokers, cfg.KafkaAuthTopic)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize Kafka code sender: %v", err)
		}
		codeSender = ks
		closers = append(closers, func() {
			if err := ks.Close(); err != nil {
				log.Printf("[Kafka] Closing code sender failed: %v", err)
			}
		})
	}
	verificationService := user_services.NewVerificationService(
		userRepo, verification.NewGormVerificationRepository(db), codeSender, userService.AuthService, logger)

	purgeCtx, stopPurge := context.WithCancel(context.Background())
	go purgeExpiredCodes(purgeCtx, verificationService, 10*time.Minute)

	var authLimiter, sendLimiter ratelimit.Limiter
	if redisClient != nil {
		authLimiter = ratelimit.NewRedisRateLimiter(redisClient, "auth", ratelimit.DefaultAuthConfig())
		sendLimiter = ratelimit.NewRedisRateLimiter(redisClient, "send", ratelimit.MessageConfig(cfg.MessageRateLimit))
	} else {
		authMem := ratelimit.NewMemoryRateLimiter(ratelimit.DefaultAuthConfig())
		sendMem := ratelimit.NewMemoryRateLimiter(ratelimit.MessageConfig(cfg.MessageRateLimit))
		authLimiter, sendLimiter = authMem, sendMem
		closers = append(closers, authMem.Close, sendMem.Close)
	}

	// --- Handlers ---
	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:           handlers.NewAuthHandler(userService, verificationService, cfg.IsProduction()),
		Items:          handlers.NewItemHandler(itemService),
		Chat:           handlers.NewChatHandler(chatService),
		Socket:         handlers.NewChatSocketHandler(chatService, sendLimiter, cfg.AllowedOrigins),
		Admin:          handlers.NewAdminHandler(adminService),
		Logs:           handlers.NewLogHandler(slog.Default()),
		Tokens:         userService,
		Users:          userRepo,
		AuthLimiter:    authLimiter,
		SendLimiter:    sendLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        reg,
		MetricsHandler: reg.Handler(),
	})

	// --- Server Configuration ---
	port := ":" + cfg.ServerPort
	srv := &http.Server{
		Addr:              port,
		Handler:           telemetry.Wrap(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Startup Logging ---
	log.Printf("==================================================")
	log.Printf("Campus Lost & Found API")
	log.Printf("==================================================")
	log.Printf("Server starting on port %s", port)
	log.Printf("Local access: http://localhost%s/health", port)
	log.Printf("Metrics: http://localhost%s/metrics", port)
	log.Printf("Store: %s | Photos: %t | Redis: %t | Kafka: %t",
		cfg.DBDriver, images != nil, redisClient != nil, cfg.KafkaBrokers != "")
	log.Printf("==================================================")

	// --- Start Server in Goroutine ---
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Closing the feed ends every live session so hijacked sockets let go.
	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	stopPurge()
	if err := events.Close(); err != nil {
		log.Printf("[Kafka] Flush on shutdown failed: %v", err)
	}
	for _, closeFn := range closers {
		closeFn()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("[Telemetry] Shutdown failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("Server stopped gracefully")
}

func purgeExpiredCodes(ctx context.Context, codes *user_services.VerificationService, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := codes.PurgeExpired(ctx); err != nil {
				log.Printf("[Verification] Purging expired codes failed: %v", err)
			} else if n > 0 {
				log.Printf("[Verification] Purged %d expired codes", n)
			}
		}
	}
}

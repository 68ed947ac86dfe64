package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/bizgenius/api/internal/client"
	"github.com/bizgenius/api/internal/config"
	"github.com/bizgenius/api/internal/generation"
	"github.com/bizgenius/api/internal/handler"
	"github.com/bizgenius/api/internal/middleware"
	"github.com/bizgenius/api/internal/service"
	"github.com/bizgenius/api/internal/store"
	"github.com/bizgenius/api/internal/worker"
	ws "github.com/bizgenius/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize stores
	sessionStore := store.NewSessionStore(redisClient)
	ideaStore := store.NewIdeaStore(redisClient)
	userStore := store.NewUserStore(redisClient)

	// Initialize AI and billing clients
	aiClient := client.NewOpenRouterClient(&cfg.OpenRouter)
	if !aiClient.IsConfigured() {
		log.Printf("Warning: OpenRouter API key not set; generation will fail")
	}
	stripeClient := client.NewStripeClient(&cfg.Stripe)

	// Initialize generation pipeline
	registry := generation.DefaultRegistry()
	executor := generation.NewStageExecutor(
		aiClient,
		cfg.OpenRouter.PrimaryModel,
		cfg.OpenRouter.FallbackModel,
		cfg.Generation.MaxRetries,
		cfg.Generation.BackoffBase,
	)

	// Initialize services
	sessionService := service.NewSessionService(sessionStore, userStore, asynqClient, registry)
	questionService := service.NewQuestionService(aiClient, cfg.OpenRouter.FallbackModel)
	ideaService := service.NewIdeaService(ideaStore, sessionStore, userStore)
	billingService := service.NewBillingService(stripeClient, userStore, &cfg.Stripe)

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(sessionService, validate)
	questionHandler := handler.NewQuestionHandler(questionService, validate)
	ideaHandler := handler.NewIdeaHandler(ideaService, validate)
	billingHandler := handler.NewBillingHandler(billingService, validate)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,Stripe-Signature",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Stripe webhook (signature-authenticated, outside the JWT group)
	app.Post("/webhooks/stripe", billingHandler.Webhook)

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	// Session routes
	sessions := api.Group("/sessions")
	sessions.Post("/", rateLimiter.SessionLimit(cfg.RateLimit.SessionsPerHour), sessionHandler.Create)
	sessions.Get("/:sessionId/status", sessionHandler.Status)
	sessions.Get("/:sessionId/result", sessionHandler.Result)
	sessions.Post("/:sessionId/retry", rateLimiter.SessionLimit(cfg.RateLimit.SessionsPerHour), sessionHandler.Retry)

	// Question routes
	questions := api.Group("/questions", rateLimiter.QuestionLimit(cfg.RateLimit.QuestionsPerMin))
	questions.Post("/generate", questionHandler.Generate)

	// Idea routes
	ideas := api.Group("/ideas", rateLimiter.IdeaLimit(cfg.RateLimit.IdeasPerHour))
	ideas.Post("/", ideaHandler.Save)
	ideas.Get("/", ideaHandler.List)
	ideas.Get("/:ideaId", ideaHandler.Get)
	ideas.Delete("/:ideaId", ideaHandler.Delete)

	// Billing routes
	billing := api.Group("/billing", rateLimiter.BillingLimit(cfg.RateLimit.BillingPerHour))
	billing.Post("/checkout", billingHandler.Checkout)
	billing.Post("/portal", billingHandler.Portal)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/sessions/:sessionId", websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionId")
		// Note: In production, validate the token from query param
		// token := c.Query("token")
		hub.HandleConnection(c, sessionID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, sessionStore, executor, registry, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(cfg *config.Config, sessionStore *store.SessionStore, executor *generation.StageExecutor, registry *generation.Registry, hub *ws.Hub) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"generation": 10,
			},
		},
	)

	generationWorker := worker.NewGenerationWorker(sessionStore, executor, registry, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeGeneration, generationWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}

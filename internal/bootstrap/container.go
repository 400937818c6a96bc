package bootstrap

import (
	"context"
	"log"

	"examcraft-be/internal/config"
	"examcraft-be/internal/controller"
	"examcraft-be/internal/handler"
	"examcraft-be/internal/pkg/logger"
	"examcraft-be/internal/pkg/mailer"
	"examcraft-be/internal/repository/implementation"
	"examcraft-be/internal/repository/memory"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/internal/service"
	"examcraft-be/internal/websocket"
	"examcraft-be/pkg/embedding"
	"examcraft-be/pkg/embedding/jina"
	"examcraft-be/pkg/exam/grade"
	"examcraft-be/pkg/llm/factory"
	"examcraft-be/pkg/rag/access"
	"examcraft-be/pkg/rag/history"
	pkgSearch "examcraft-be/pkg/rag/search"
	"examcraft-be/pkg/storage"

	pktNats "examcraft-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController       controller.IAuthController
	OAuthController      controller.IOAuthController
	UserController       controller.IUserController
	AdminController      controller.IAdminController
	CorpusController     controller.ICorpusController
	PaperController      controller.IPaperController
	AttemptController    controller.IAttemptController
	ChatbotController    controller.IChatbotController
	EvaluationController controller.IEvaluationController
	PlanController       controller.IPlanController
	PaymentController    controller.IPaymentController

	// Background workers, run by main
	ConsumerService  service.IConsumerService
	GradingService   service.IGradingService
	SchedulerService service.ISchedulerService

	// WebSockets and notifications
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// In-process event bus for the ingest and grading pipelines
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Embedding provider
	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	case "jina":
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	default:
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// LLM provider
	llmAPIKey := cfg.Keys.HuggingFace
	if cfg.Ai.LLMProvider == "openai" {
		llmAPIKey = cfg.Keys.OpenAI
	}
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.OllamaBaseURL,
		APIKey:   llmAPIKey,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Object store for uploaded PDFs; S3 when configured, local disk otherwise
	var objectStore storage.ObjectStore
	if cfg.Storage.S3Bucket != "" {
		objectStore, err = storage.NewS3Store(storage.S3Config{
			Bucket:   cfg.Storage.S3Bucket,
			Region:   cfg.Storage.S3Region,
			Endpoint: cfg.Storage.S3Endpoint,
		})
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize S3 store: %v", err)
		}
	} else {
		objectStore, err = storage.NewLocalStore(cfg.Storage.UploadsPath)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize local store: %v", err)
		}
		log.Printf("[INFO] S3 not configured, storing uploads under %s", cfg.Storage.UploadsPath)
	}

	// NATS event bus for cross-service notifications
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis, used by the websocket hub for cross-instance fan-out
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// RAG plumbing shared by generation, chat and evaluation
	searcher := pkgSearch.NewOrchestrator(embeddingProvider, sysLogger)
	searchConfig := pkgSearch.Config{
		TopK:           cfg.Retrieval.TopK,
		RelevanceFloor: cfg.Retrieval.RelevanceFloor,
		DedupThreshold: cfg.Retrieval.DedupThreshold,
		TokenBudget:    cfg.Retrieval.TokenBudget,
	}
	verifier := access.NewVerifier(cfg.Chat.FreeDailyLimit)
	sessionRepo := memory.NewSessionRepository()
	historyLoader := history.NewLoader(sessionRepo, cfg.Chat.HistoryWindow)

	gradePolicy := grade.DefaultPolicy()
	if cfg.Grading.FullThreshold > 0 {
		gradePolicy.FullThreshold = cfg.Grading.FullThreshold
		gradePolicy.PartialThreshold = cfg.Grading.PartialThreshold
		gradePolicy.PartialFraction = cfg.Grading.PartialFraction
		gradePolicy.AmbiguousLow = cfg.Grading.AmbiguousLow
		gradePolicy.AmbiguousHigh = cfg.Grading.AmbiguousHigh
	}

	// Pipeline topics
	ingestPublisher := service.NewPublisherService(cfg.Keys.IngestTopic, pubSub)
	gradingPublisher := service.NewPublisherService(cfg.Keys.GradingTopic, pubSub)

	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.IngestTopic,
		uowFactory,
		embeddingProvider,
		objectStore,
		natsPub,
	)
	gradingService := service.NewGradingService(
		pubSub,
		cfg.Keys.GradingTopic,
		uowFactory,
		embeddingProvider,
		gradePolicy,
		natsPub,
	)

	// Application services
	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory)
	userService := service.NewUserService(uowFactory, verifier)

	corpusService := service.NewCorpusService(
		uowFactory,
		ingestPublisher,
		objectStore,
		searcher,
		searchConfig,
		sysLogger,
	)
	paperService := service.NewPaperService(
		uowFactory,
		searcher,
		searchConfig,
		llmProvider,
		cfg.Generation,
		natsPub,
		sysLogger,
	)
	revisionService := service.NewRevisionService(
		uowFactory,
		searcher,
		searchConfig,
		llmProvider,
		cfg.Generation,
		sysLogger,
	)
	attemptService := service.NewAttemptService(uowFactory, gradingPublisher, sysLogger)
	chatbotService := service.NewChatbotService(
		uowFactory,
		llmProvider,
		searcher,
		searchConfig,
		cfg.Chat,
		verifier,
		historyLoader,
		sysLogger,
	)
	evaluationService := service.NewEvaluationService(
		uowFactory,
		paperService,
		llmProvider,
		cfg.Ai.JudgeModel,
		searcher,
		searchConfig,
		cfg.Eval,
		natsPub,
		sysLogger,
	)
	adminService := service.NewAdminService(uowFactory, verifier, sysLogger)
	planService := service.NewPlanService(uowFactory)
	paymentService := service.NewPaymentService(
		uowFactory,
		cfg.Payment,
		cfg.App.ClientURL,
		natsPub,
		sysLogger,
	)

	schedulerService := service.NewSchedulerService(
		uowFactory,
		gradingPublisher,
		evaluationService,
		cfg.Scheduler,
	)

	// Notification fan-out worker
	notifRepo := implementation.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}
	notifHandler := handler.NewNotificationHandler(notifService, natsPub, wsHub, wsLogger)

	return &Container{
		AuthController:       controller.NewAuthController(authService),
		OAuthController:      controller.NewOAuthController(oauthService),
		UserController:       controller.NewUserController(userService),
		AdminController:      controller.NewAdminController(adminService, authService),
		CorpusController:     controller.NewCorpusController(corpusService),
		PaperController:      controller.NewPaperController(paperService, revisionService),
		AttemptController:    controller.NewAttemptController(attemptService),
		ChatbotController:    controller.NewChatbotController(chatbotService, sysLogger),
		EvaluationController: controller.NewEvaluationController(evaluationService),
		PlanController:       controller.NewPlanController(planService),
		PaymentController:    controller.NewPaymentController(paymentService),

		ConsumerService:  consumerService,
		GradingService:   gradingService,
		SchedulerService: schedulerService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}

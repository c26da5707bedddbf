package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/ClareAI/astra-dialer-service/internal/adapters/vapi"
	"github.com/ClareAI/astra-dialer-service/internal/config"
	"github.com/ClareAI/astra-dialer-service/internal/live"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	agentservice "github.com/ClareAI/astra-dialer-service/internal/services/agent"
	"github.com/ClareAI/astra-dialer-service/internal/services/billing"
	"github.com/ClareAI/astra-dialer-service/internal/services/dispatch"
	"github.com/ClareAI/astra-dialer-service/internal/services/numbers"
	"github.com/ClareAI/astra-dialer-service/internal/services/reconcile"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"github.com/ClareAI/astra-dialer-service/pkg/redis"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HandlerManager wires repositories, services and handlers together
type HandlerManager struct {
	config      *config.Config
	repoManager repository.RepositoryManager
	vapiClient  *vapi.Client
	redisSvc    redis.RedisServiceInterface

	dispatchService *dispatch.Service
	reconcileSvc    *reconcile.Service
	billingService  *billing.Service
	numberService   *numbers.Service
	agentService    *agentservice.Service
	hub             *live.Hub
}

// NewHandlerManager creates and initializes all handlers and services
func NewHandlerManager(cfg *config.Config) (*HandlerManager, error) {
	repoManager, err := repository.NewRepositoryManager()
	if err != nil {
		logger.Base().Error("failed to connect to database", zap.Error(err))
		return nil, err
	}

	// Redis is optional; without it the billing gate reads the store directly.
	redisConfig := &redis.RedisConfig{
		Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
		Port:     getEnvOrDefault("REDIS_PORT", "6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	}
	var redisSvc redis.RedisServiceInterface
	if svc, err := redis.NewRedisService(redisConfig); err != nil {
		logger.Base().Warn("failed to initialize redis service, running without plan cache", zap.Error(err))
	} else {
		redisSvc = svc
	}

	vapiClient := vapi.NewClient(cfg.VapiBaseURL, cfg.VapiAPIKey)
	twilioClient := numbers.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken)

	hub := live.NewHub()
	go hub.Run(context.Background())

	limiter := rate.NewLimiter(rate.Limit(cfg.DispatchCallsPerSec), cfg.DispatchBurst)

	hm := &HandlerManager{
		config:          cfg,
		repoManager:     repoManager,
		vapiClient:      vapiClient,
		redisSvc:        redisSvc,
		dispatchService: dispatch.NewService(repoManager, vapiClient, limiter, cfg.DispatchBatchSize),
		reconcileSvc:    reconcile.NewService(repoManager, live.NewFanoutNotifier(hub, redisSvc)),
		billingService:  billing.NewService(repoManager, redisSvc),
		numberService:   numbers.NewService(repoManager, vapiClient, twilioClient),
		agentService:    agentservice.NewService(repoManager, vapiClient),
		hub:             hub,
	}

	logger.Base().Info("handler manager initialized",
		zap.Int("dispatch_batch_size", cfg.DispatchBatchSize),
		zap.Float64("dispatch_calls_per_sec", cfg.DispatchCallsPerSec),
		zap.Bool("maintenance_mode", cfg.MaintenanceMode))
	return hm, nil
}

// SetupAllRoutes sets up all routes with middleware
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	if hm.config.EnableCORS {
		router.Use(CORSMiddleware)
	}
	router.Use(GlobalLoggingMiddleware)

	router.HandleFunc("/health", hm.handleHealth).Methods("GET")

	hm.SetupWebhookRoutes(router)
	hm.SetupAPIRoutes(router)

	logger.Base().Info("all application routes registered")
}

// SetupAPIRoutes sets up the authenticated CRUD API routes
func (hm *HandlerManager) SetupAPIRoutes(router *mux.Router) {
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(LoggingMiddleware)
	apiRouter.Use(ValidationMiddleware)
	apiRouter.Use(MaintenanceMiddleware(hm.config))

	orgHandler := NewOrganizationHandler(hm.repoManager, hm.billingService, hm.config.JWTSecret)
	orgHandler.SetupPublicRoutes(apiRouter)

	authedRouter := apiRouter.NewRoute().Subrouter()
	authedRouter.Use(AuthMiddleware(hm.repoManager.Organization(), hm.config.JWTSecret))

	orgHandler.SetupRoutes(authedRouter)

	agentHandler := NewAgentHandler(hm.repoManager, hm.agentService, hm.billingService)
	agentHandler.SetupRoutes(authedRouter)

	phoneNumberHandler := NewPhoneNumberHandler(hm.repoManager, hm.numberService, hm.billingService)
	phoneNumberHandler.SetupRoutes(authedRouter)

	toolHandler := NewToolHandler(hm.repoManager, hm.vapiClient)
	toolHandler.SetupRoutes(authedRouter)

	campaignHandler := NewCampaignHandler(hm.repoManager, hm.dispatchService, hm.billingService)
	campaignHandler.SetupRoutes(authedRouter)

	callHandler := NewCallHandler(hm.repoManager)
	callHandler.SetupRoutes(authedRouter)

	liveHandler := NewLiveHandler(hm.hub)
	liveHandler.SetupRoutes(authedRouter)

	router.PathPrefix("/api/").HandlerFunc(handleCORS).Methods("OPTIONS")

	logger.Base().Info("crud api routes registered")
}

// SetupWebhookRoutes sets up the provider webhook routes. Webhooks bypass
// organization auth and the maintenance gate: the provider retries non-2xx
// responses, so the endpoint must stay reachable.
func (hm *HandlerManager) SetupWebhookRoutes(router *mux.Router) {
	webhookRouter := router.PathPrefix("/api").Subrouter()
	webhookRouter.Use(LoggingMiddleware)

	webhookHandler := NewWebhookHandler(hm.reconcileSvc, hm.config.VapiWebhookSecret)
	webhookHandler.SetupRoutes(webhookRouter)

	logger.Base().Info("webhook routes registered",
		zap.Bool("signature_check", hm.config.VapiWebhookSecret != ""))
}

// GetRepoManager returns the repository manager
func (hm *HandlerManager) GetRepoManager() repository.RepositoryManager {
	return hm.repoManager
}

// Close releases the manager's external connections
func (hm *HandlerManager) Close() error {
	if closer, ok := hm.redisSvc.(*redis.RedisService); ok && closer != nil {
		closer.Close()
	}
	return hm.repoManager.Close()
}

func (hm *HandlerManager) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := hm.repoManager.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCORS handles CORS preflight requests for API routes
func handleCORS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Vapi-Signature")
	w.WriteHeader(http.StatusOK)
}

// GlobalLoggingMiddleware logs all HTTP requests (not just API)
func GlobalLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Base().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.RequestURI),
			zap.Int("status", wrapped.statusCode))
	})
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

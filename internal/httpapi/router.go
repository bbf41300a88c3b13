package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/UltraUmarGamerz1/find-the-thief/internal/clock"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/debug"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/game"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/httpapi/handler"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/kv"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/ratelimit"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/store"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/websocket"

	_ "github.com/UltraUmarGamerz1/find-the-thief/docs" // swag-generated docs
)

// Config holds everything NewRouter needs beyond the two datastores.
type Config struct {
	// TokenSecret signs WebSocket auth tokens; if empty, create/join
	// responses omit the token and the WS endpoint rejects everyone.
	TokenSecret []byte

	// RateLimiter guards create/join and chat. nil disables limiting.
	RateLimiter ratelimit.Limiter

	// PublicURL is the externally reachable base URL, used in join QR codes.
	PublicURL string

	// AllowedOrigins for CORS. Empty means "*" (the clients are browser tabs
	// served from wherever the static bundle is hosted).
	AllowedOrigins []string
}

// NewRouter builds the root HTTP router: middleware, health check, swagger,
// the REST surface, and the session WebSocket, with the engine, director,
// and hub wired together behind them.
//
// @title            Find the Thief API
// @version          1.0
// @description      API for Find the Thief lobby sessions, games, and player data.
// @BasePath         /
func NewRouter(pool *pgxpool.Pool, redisClient *redis.Client, cfg Config) (http.Handler, error) {
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = &ratelimit.Noop{}
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", handler.Healthz)

	// Swagger UI and generated spec (from swag comments)
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// Stores over Postgres and Redis
	admin := &debug.Mode{}
	sessionStore := store.NewSessionStore(pool)
	gameStore := store.NewGameStore(pool)
	eventStore := store.NewGameEventStore(pool)
	feedbackStore := store.NewFeedbackStore(pool)
	wallet, err := kv.NewWalletStore(redisClient, admin)
	if err != nil {
		return nil, err
	}
	prefs, err := kv.NewPrefsStore(redisClient)
	if err != nil {
		return nil, err
	}

	// Engine, director, and hub. The director's publish points back at the
	// event handler, so the director is attached after construction.
	engine := game.NewEngine(gameStore, eventStore, wallet, admin, game.DefaultConfig())
	hub := websocket.NewHub(nil)
	eventHandler := websocket.NewEventHandler(hub, sessionStore, gameStore, engine, nil, rateLimiter)
	director := game.NewDirector(engine, clock.New(), eventHandler.PublishGameResult)
	eventHandler.SetDirector(director)
	hub.SetEventHandler(eventHandler)
	go hub.Run()

	wsHandler := websocket.NewWSHandler(hub, sessionStore, cfg.TokenSecret)
	r.Get("/ws/sessions/{session_id}", wsHandler.HandleSessionWebSocket)

	// Rate limit middleware for create/join (by IP)
	rateLimitByIP := RateLimitMiddleware(rateLimiter, RateLimitKeyByIP)

	sessionHandler := handler.NewSessionHandler(sessionStore, engine, director, eventHandler, hub, cfg.TokenSecret, cfg.PublicURL)
	gameHandler := handler.NewGameHandler(gameStore, eventStore, engine, director)
	feedbackHandler := handler.NewFeedbackHandler(feedbackStore, admin)
	playerHandler := handler.NewPlayerHandler(prefs, wallet)

	r.Route("/api", func(r chi.Router) {
		r.Use(LimitRequestBody(DefaultMaxBodyBytes))

		r.Route("/sessions", func(r chi.Router) {
			r.With(rateLimitByIP).Post("/", sessionHandler.CreateSession)
			r.Get("/{session_id}", sessionHandler.GetSession)
			r.Get("/{session_id}/qr", sessionHandler.JoinQR)
			r.With(rateLimitByIP).Post("/{session_id}/join", sessionHandler.JoinSession)
			r.Post("/{session_id}/leave", sessionHandler.LeaveSession)
			r.Post("/{session_id}/start", sessionHandler.StartSession)
		})

		r.Route("/games", func(r chi.Router) {
			r.With(rateLimitByIP).Post("/", gameHandler.CreateGame)
			r.Get("/{game_id}", gameHandler.GetGame)
			r.Post("/{game_id}/actions", gameHandler.ApplyAction)
			r.Get("/{game_id}/events", gameHandler.ListEvents)
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Post("/suggestions", feedbackHandler.CreateSuggestion)
			r.Get("/suggestions", feedbackHandler.ListSuggestions)
			r.Delete("/suggestions/{id}", feedbackHandler.DeleteSuggestion)
			r.Post("/bug-reports", feedbackHandler.CreateBugReport)
			r.Get("/bug-reports", feedbackHandler.ListBugReports)
			r.Delete("/bug-reports/{id}", feedbackHandler.DeleteBugReport)
		})

		r.Route("/players/{player_id}", func(r chi.Router) {
			r.Get("/settings", playerHandler.GetSettings)
			r.Put("/settings", playerHandler.PutSettings)
			r.Get("/name", playerHandler.GetDisplayName)
			r.Put("/name", playerHandler.PutDisplayName)
			r.Get("/wallet", playerHandler.GetWallet)
		})
	})

	return r, nil
}

// DefaultRateLimiter returns an in-memory limiter for create/join/chat:
// 20 requests per minute per IP. For multi-instance deployments use
// ratelimit.NewRedis instead.
func DefaultRateLimiter() ratelimit.Limiter {
	return ratelimit.NewInMemory(20, time.Minute)
}

package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/Harshitk-cp/curator/internal/api/handlers"
	mw "github.com/Harshitk-cp/curator/internal/api/middleware"
	"github.com/Harshitk-cp/curator/internal/buildconfig"
	"github.com/Harshitk-cp/curator/internal/config"
	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/Harshitk-cp/curator/internal/knowledge"
	"github.com/Harshitk-cp/curator/internal/service"
	"github.com/Harshitk-cp/curator/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const rateLimitCleanupEvery = 10 * time.Minute

// App holds the router and background services for lifecycle management.
type App struct {
	Router      *chi.Mux
	Sessions    *service.SessionManager
	Recorder    *service.AttentionRecorder
	RateLimiter *mw.RateLimiter

	metrics   *mw.MetricsCollector
	startTime time.Time
}

// NewApp wires the HTTP surface. db may be nil, in which case attention
// events are not recorded and the events endpoints answer 503.
func NewApp(db *pgxpool.Pool, kb *knowledge.Base, cfg service.SessionConfig, logger *zap.Logger) *App {
	sessions := service.NewSessionManager(kb, cfg, service.RealClock(), logger)

	var (
		eventStore domain.AttentionEventStore
		recorder   *service.AttentionRecorder
	)
	if db != nil {
		eventStore = store.NewAttentionEventStore(db)
		recorder = service.NewAttentionRecorder(eventStore, logger)
		recorder.SetRetention(config.EventRetention())
		sessions.SetRecorder(recorder)
	} else {
		logger.Warn("no database configured, attention events will not be recorded")
	}

	// Handlers
	sessionHandler := handlers.NewSessionHandler(sessions)
	signalHandler := handlers.NewSignalHandler(kb)
	captureHandler := handlers.NewCaptureHandler(logger)
	chatHandler := handlers.NewChatHandler()
	eventsHandler := handlers.NewEventsHandler(eventStore, logger)
	knowledgeHandler := handlers.NewKnowledgeHandler(kb)

	r := chi.NewRouter()

	app := &App{
		Router:      r,
		Sessions:    sessions,
		Recorder:    recorder,
		RateLimiter: mw.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst()),
		startTime:   time.Now(),
	}
	app.metrics = mw.NewMetricsCollector()

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiter.Middleware)

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())
	r.Get("/version", versionHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/knowledge", func(r chi.Router) {
			r.Get("/artifacts", knowledgeHandler.Artifacts)
			r.Get("/sections", knowledgeHandler.Sections)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(mw.SessionCtx(sessions))

				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.Delete)
				r.Get("/target", sessionHandler.Target)

				r.Post("/signals", signalHandler.Signal)
				r.Post("/hover", signalHandler.Hover)
				r.Post("/viewport", signalHandler.Viewport)

				r.Route("/capture", func(r chi.Router) {
					r.Post("/start", captureHandler.Start)
					r.Post("/stop", captureHandler.Stop)
					r.Post("/deny", captureHandler.Deny)
					r.Post("/frames", captureHandler.Frame)
				})

				r.Post("/chat", chatHandler.Chat)

				r.Get("/events", eventsHandler.List)
				r.Get("/events/similar", eventsHandler.Similar)
			})
		})
	})

	return app
}

// Start launches the background workers.
func (app *App) Start() {
	app.Sessions.Start()
	if app.Recorder != nil {
		app.Recorder.Start()
	}
	app.RateLimiter.Start(rateLimitCleanupEvery)
}

// Stop ends every session first so their final belief changes reach the
// recorder before it drains.
func (app *App) Stop() {
	app.RateLimiter.Stop()
	app.Sessions.Stop()
	if app.Recorder != nil {
		app.Recorder.Stop()
	}
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "disabled"})
			return
		}
		if err := db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildconfig.VersionInfo())
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		m := app.metrics.Snapshot()

		response := map[string]any{
			"uptime_seconds":        uptime.Seconds(),
			"uptime_human":          uptime.Round(time.Second).String(),
			"request_count":         m.Requests,
			"error_count":           m.Errors(),
			"client_error_count":    m.ClientErrors,
			"server_error_count":    m.ServerErrors,
			"rate_limited_count":    m.RateLimited,
			"frame_uploads":         m.Frames,
			"frame_upload_failures": m.FramesFailed,
			"active_sessions":       app.Sessions.Count(),
			"rate_limit_clients":    app.RateLimiter.Len(),
			"recording_events":      app.Recorder != nil,
			"goroutines":            runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		writeJSON(w, http.StatusOK, response)
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.AttentionEventStore = (*store.AttentionEventStore)(nil)
	_ service.EventRecorder      = (*service.AttentionRecorder)(nil)
	_ service.SignalSink         = (*service.AttentionTracker)(nil)
	_ service.AttentionTarget    = (*service.AttentionTracker)(nil)
	_ mw.SessionLookup           = (*service.SessionManager)(nil)
)

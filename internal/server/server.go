package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/screenquest/screenquest/internal/handler"
	"github.com/screenquest/screenquest/internal/middleware"
	"github.com/screenquest/screenquest/internal/proof"
	"github.com/screenquest/screenquest/internal/push"
	"github.com/screenquest/screenquest/internal/store"
	"github.com/screenquest/screenquest/internal/task"
	ws "github.com/screenquest/screenquest/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	memberH     *handler.MemberHandler
	templateH   *handler.TemplateHandler
	assignmentH *handler.AssignmentHandler
	economyH    *handler.EconomyHandler
	pushH       *handler.PushHandler
	proofH      *handler.ProofHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, pushCfg push.Config, proofCfg proof.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	memberStore := store.NewMemberStore(db)
	templateStore := store.NewTemplateStore(db)
	assignmentStore := store.NewAssignmentStore(db)
	ledgerStore := store.NewLedgerStore(db)
	credibilityStore := store.NewCredibilityStore(db)
	pushStore := store.NewPushStore(db)

	// Push is optional: without VAPID keys the realtime feed still works.
	var pushSvc *push.Service
	var notifier *push.Notifier
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
		notifier = push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))
	}

	// Every domain event reaches the websocket hub; push delivery piggybacks
	// when configured.
	emit := func(e task.Event) {
		hub.Broadcast(e)
		if notifier != nil {
			notifier.HandleEvent(e)
		}
	}

	svc := task.NewService(db, emit, logger.With("component", "task"))
	proofStore := proof.NewStore(proofCfg)

	return &Server{
		db:          db,
		hub:         hub,
		memberH:     handler.NewMemberHandler(memberStore, logger.With("component", "member")),
		templateH:   handler.NewTemplateHandler(templateStore, logger.With("component", "template")),
		assignmentH: handler.NewAssignmentHandler(svc, assignmentStore, memberStore, logger.With("component", "assignment")),
		economyH:    handler.NewEconomyHandler(svc, ledgerStore, credibilityStore, logger.With("component", "economy")),
		pushH:       handler.NewPushHandler(pushSvc, pushStore, logger.With("component", "push_handler")),
		proofH:      handler.NewProofHandler(proofStore, logger.With("component", "proof")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Members
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)

	// PIN routes; verification is rate limited to slow guessing
	mux.HandleFunc("POST /api/members/{id}/pin", s.memberH.SetPIN)
	mux.HandleFunc("DELETE /api/members/{id}/pin", s.memberH.ClearPIN)
	mux.HandleFunc("POST /api/members/{id}/pin/verify", s.rateLimitedHandler(s.memberH.VerifyPIN))

	// Task templates
	mux.HandleFunc("POST /api/templates", s.templateH.Create)
	mux.HandleFunc("GET /api/templates", s.templateH.List)
	mux.HandleFunc("GET /api/templates/{id}", s.templateH.Get)
	mux.HandleFunc("PUT /api/templates/{id}", s.templateH.Update)
	mux.HandleFunc("DELETE /api/templates/{id}", s.templateH.Delete)

	// Assignment lifecycle
	mux.HandleFunc("POST /api/assignments", s.assignmentH.Create)
	mux.HandleFunc("GET /api/assignments/pending-review", s.assignmentH.PendingReview)
	mux.HandleFunc("GET /api/assignments/{id}", s.assignmentH.Get)
	mux.HandleFunc("DELETE /api/assignments/{id}", s.assignmentH.Delete)
	mux.HandleFunc("POST /api/assignments/{id}/start", s.assignmentH.Start)
	mux.HandleFunc("POST /api/assignments/{id}/timer/pause", s.assignmentH.PauseTimer)
	mux.HandleFunc("POST /api/assignments/{id}/timer/resume", s.assignmentH.ResumeTimer)
	mux.HandleFunc("GET /api/assignments/{id}/timer", s.assignmentH.Elapsed)
	mux.HandleFunc("POST /api/assignments/{id}/submit", s.assignmentH.Submit)
	mux.HandleFunc("POST /api/assignments/{id}/approve", s.rateLimitedHandler(s.assignmentH.Approve))
	mux.HandleFunc("POST /api/assignments/{id}/decline", s.rateLimitedHandler(s.assignmentH.Decline))
	mux.HandleFunc("POST /api/assignments/{id}/acknowledge", s.assignmentH.AcknowledgeDecline)
	mux.HandleFunc("POST /api/assignments/{id}/expire", s.assignmentH.Expire)

	// Per-child views
	mux.HandleFunc("GET /api/children/{id}/assignments", s.assignmentH.List)
	mux.HandleFunc("GET /api/children/{id}/declines", s.assignmentH.UnseenDeclines)

	// Economy
	mux.HandleFunc("GET /api/children/{id}/balance", s.economyH.Balance)
	mux.HandleFunc("GET /api/children/{id}/credibility", s.economyH.Credibility)
	mux.HandleFunc("GET /api/children/{id}/transactions", s.economyH.Transactions)
	mux.HandleFunc("POST /api/children/{id}/redeem", s.economyH.Redeem)
	mux.HandleFunc("GET /api/children/{id}/preview-xp", s.economyH.PreviewXP)
	mux.HandleFunc("POST /api/children/{id}/balance/reset", s.economyH.ResetBalance)
	mux.HandleFunc("DELETE /api/children/{id}/transactions", s.economyH.ClearHistory)
	mux.HandleFunc("POST /api/children/{id}/credibility/reset", s.economyH.ResetCredibility)
	mux.HandleFunc("GET /api/economy/levels", s.economyH.Levels)
	mux.HandleFunc("GET /api/economy/tiers", s.economyH.Tiers)

	// Proof objects
	mux.HandleFunc("POST /api/children/{id}/proofs", s.proofH.Upload)
	mux.HandleFunc("GET /api/proofs/{ref...}", s.proofH.Fetch)

	// Push notifications
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDPublicKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/members/{id}/push-subscriptions", s.pushH.List)
	mux.HandleFunc("POST /api/members/{id}/push-test", s.pushH.Test)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

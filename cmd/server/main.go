package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/liamcoop/hractions/agent"
	"github.com/liamcoop/hractions/internal/logger"
	"github.com/liamcoop/hractions/policy"
	"github.com/liamcoop/hractions/tenantagent"
)

// Server exposes the action layer over HTTP. With a database it serves one
// agent per tenant; without one it serves a single agent compiled from the
// built-in rules, and the tenant management routes are not registered.
type Server struct {
	db           *sql.DB
	manager      *tenantagent.Manager
	defaultAgent *agent.Agent
	router       *chi.Mux
}

// NewServer wires the server for the database-backed multi-tenant mode.
func NewServer(databaseURL string) (*Server, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewServerWithDB(db)
}

// NewServerWithDB wires the multi-tenant server over an existing connection.
func NewServerWithDB(db *sql.DB) (*Server, error) {
	manager := tenantagent.NewManager(db, nil)

	logger.Info("loading tenants from database")
	if err := manager.LoadAllTenants(); err != nil {
		return nil, fmt.Errorf("failed to load tenants: %w", err)
	}

	tenants := manager.ListTenants()
	logger.Info("tenants loaded", "count", len(tenants), "tenants", tenants)

	s := &Server{
		db:      db,
		manager: manager,
	}

	s.setupRoutes()

	return s, nil
}

// NewStandaloneServer wires the server for the single-agent builtin-rule
// mode used when no DATABASE_URL is configured.
func NewStandaloneServer() (*Server, error) {
	builtin, err := agent.NewBuiltin(nil)
	if err != nil {
		return nil, err
	}

	s := &Server{
		defaultAgent: builtin,
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/api/v1/health", s.handleHealth)

	// Query execution
	r.Post("/api/v1/execute", s.handleExecute)

	// Tenant management, database-backed mode only
	if s.manager != nil {
		r.Route("/api/v1/tenants", func(r chi.Router) {
			r.Get("/", s.handleListTenants)
			r.Post("/", s.handleCreateTenant)

			r.Route("/{tenantId}", func(r chi.Router) {
				r.Post("/reload", s.handleReloadTenant)

				r.Post("/rules", s.handleCreateRule)
				r.Get("/rules", s.handleListRules)
				r.Get("/rules/{ruleId}", s.handleGetRule)
				r.Put("/rules/{ruleId}", s.handleUpdateRule)
				r.Delete("/rules/{ruleId}", s.handleDeleteRule)
			})
		})
	}

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	resp := map[string]any{
		"status":    "healthy",
		"refusals":  logger.TotalRefusals.Load(),
		"actions":   logger.TotalActions.Load(),
		"fallbacks": logger.TotalFallbacks.Load(),
	}
	if s.manager != nil {
		resp["tenantsLoaded"] = len(s.manager.ListTenants())
	}

	respondJSON(w, http.StatusOK, resp)
}

// Execute handler: runs one utterance through the action layer.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "query is required", nil)
		return
	}

	ag, status, err := s.resolveAgent(req.TenantID)
	if err != nil {
		respondError(w, status, "failed to resolve agent", err)
		return
	}

	startTime := time.Now()

	result, err := ag.Execute(req.Query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "execution failed", err)
		return
	}

	output, err := result.Render()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to render result", err)
		return
	}

	logger.CountResult(string(result.Kind))

	respondJSON(w, http.StatusOK, ExecuteResponse{
		Kind:           string(result.Kind),
		Output:         output,
		EvaluationTime: time.Since(startTime).String(),
	})
}

// resolveAgent picks the tenant's agent in database mode and the builtin
// agent otherwise.
func (s *Server) resolveAgent(tenantID string) (*agent.Agent, int, error) {
	if s.manager == nil {
		return s.defaultAgent, http.StatusOK, nil
	}

	if tenantID == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("tenantId is required")
	}

	ag, err := s.manager.GetAgent(tenantID)
	if err != nil {
		return nil, http.StatusNotFound, err
	}
	return ag, http.StatusOK, nil
}

// List tenants handler
func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query("SELECT id, name, created_at, updated_at FROM tenants ORDER BY created_at DESC")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list tenants", err)
		return
	}
	defer rows.Close()

	tenants := []TenantResponse{}
	for rows.Next() {
		var t TenantResponse
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to scan tenant", err)
			return
		}
		tenants = append(tenants, t)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"tenants": tenants,
	})
}

// Create tenant handler. New tenants start with the built-in rule set so
// the guardrails are never absent.
func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	var tenantID string
	err := s.db.QueryRow(`
		INSERT INTO tenants (name, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id
	`, req.Name).Scan(&tenantID)

	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create tenant", err)
		return
	}

	store := policy.NewPostgresRuleStore(s.db, tenantID)
	now := time.Now()
	for _, rule := range policy.BuiltinRules() {
		rule.CreatedAt = now
		rule.UpdatedAt = now
		if err := store.Add(rule); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to seed builtin rules", err)
			return
		}
	}

	if err := s.manager.CreateTenant(tenantID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to initialize tenant", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":   tenantID,
		"name": req.Name,
	})
}

// Reload tenant handler: recompiles the tenant's rules and swaps the
// engine atomically.
func (s *Server) handleReloadTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")

	if err := s.manager.ReloadTenant(tenantID); err != nil {
		respondError(w, http.StatusNotFound, "failed to reload tenant", err)
		return
	}

	store := policy.NewPostgresRuleStore(s.db, tenantID)
	activeRules, _ := store.ListActive()

	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "active",
		"rulesRecompiled": len(activeRules),
	})
}

// Create rule handler
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")

	var req CreateRuleRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	engine, err := s.manager.GetEngine(tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found", err)
		return
	}

	now := time.Now()
	rule := &policy.Rule{
		ID:         "rule-" + uuid.NewString(),
		Name:       req.Name,
		Kind:       policy.RuleKind(req.Kind),
		Expression: req.Expression,
		Outcome:    req.Outcome,
		Priority:   req.Priority,
		Active:     req.Active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := tenantagent.ValidateRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule", err)
		return
	}

	// AddRule compiles the expression and stores the rule atomically.
	if err := engine.AddRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to add rule", err)
		return
	}

	respondJSON(w, http.StatusCreated, ruleResponse(rule))
}

// List rules handler
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")

	rows, err := s.db.Query(`
		SELECT id, name, kind, expression, outcome, priority, active, created_at, updated_at
		FROM rules
		WHERE tenant_id = $1
		ORDER BY kind = 'guardrail' DESC, priority ASC, id ASC
	`, tenantID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}
	defer rows.Close()

	rulesList := []RuleResponse{}
	for rows.Next() {
		var resp RuleResponse
		if err := rows.Scan(&resp.ID, &resp.Name, &resp.Kind, &resp.Expression, &resp.Outcome,
			&resp.Priority, &resp.Active, &resp.CreatedAt, &resp.UpdatedAt); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to scan rule", err)
			return
		}
		rulesList = append(rulesList, resp)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"rules": rulesList,
	})
}

// Get rule handler
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")
	ruleID := chi.URLParam(r, "ruleId")

	store := policy.NewPostgresRuleStore(s.db, tenantID)
	rule, err := store.Get(ruleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, ruleResponse(rule))
}

// Update rule handler
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")
	ruleID := chi.URLParam(r, "ruleId")

	var req UpdateRuleRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	engine, err := s.manager.GetEngine(tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found", err)
		return
	}

	rule := &policy.Rule{
		ID:         ruleID,
		Name:       req.Name,
		Kind:       policy.RuleKind(req.Kind),
		Expression: req.Expression,
		Outcome:    req.Outcome,
		Priority:   req.Priority,
		Active:     req.Active,
		UpdatedAt:  time.Now(),
	}

	if err := tenantagent.ValidateRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule", err)
		return
	}

	if err := engine.UpdateRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to update rule", err)
		return
	}

	respondJSON(w, http.StatusOK, ruleResponse(rule))
}

// Delete rule handler
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")
	ruleID := chi.URLParam(r, "ruleId")

	engine, err := s.manager.GetEngine(tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found", err)
		return
	}

	if err := engine.DeleteRule(ruleID); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions
func ruleResponse(rule *policy.Rule) RuleResponse {
	return RuleResponse{
		ID:         rule.ID,
		Name:       rule.Name,
		Kind:       string(rule.Kind),
		Expression: rule.Expression,
		Outcome:    rule.Outcome,
		Priority:   rule.Priority,
		Active:     rule.Active,
		CreatedAt:  rule.CreatedAt,
		UpdatedAt:  rule.UpdatedAt,
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	logger.CountStatus(status)

	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	var server *Server
	var err error

	// With no database the server runs a single agent on the builtin rules.
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL != "" {
		server, err = NewServer(databaseURL)
	} else {
		logger.Info("DATABASE_URL not set, running standalone with builtin rules")
		server, err = NewStandaloneServer()
	}
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}
	if server.db != nil {
		defer server.db.Close()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		logger.Error("logger shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

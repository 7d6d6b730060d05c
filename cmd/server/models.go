package main

import "time"

// API Request and Response Models with Swagger annotations

// ExecuteRequest represents the request body for executing a query
type ExecuteRequest struct {
	TenantID string `json:"tenantId,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Query    string `json:"query" example:"apply for sick leave from monday to wednesday" binding:"required"`
} // @name ExecuteRequest

// ExecuteResponse represents the response for an executed query. Output is
// the engine's rendered text: plain refusal text or a JSON payload document.
type ExecuteResponse struct {
	Kind           string `json:"kind" example:"Action"`
	Output         string `json:"output"`
	EvaluationTime string `json:"evaluationTime" example:"1.2ms"`
} // @name ExecuteResponse

// CreateTenantRequest represents the request body for creating a tenant
type CreateTenantRequest struct {
	Name string `json:"name" example:"Acme Corp" binding:"required"`
} // @name CreateTenantRequest

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID        string    `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Name      string    `json:"name" example:"Acme Corp"`
	CreatedAt time.Time `json:"createdAt" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updatedAt" example:"2024-01-15T10:30:00Z"`
} // @name TenantResponse

// CreateRuleRequest represents the request body for creating a rule
type CreateRuleRequest struct {
	Name       string `json:"name" example:"No bonus changes" binding:"required"`
	Kind       string `json:"kind" example:"guardrail" binding:"required"`
	Expression string `json:"expression" example:"query.contains(\"bonus\")" binding:"required"`
	Outcome    string `json:"outcome" example:"I cannot modify bonus terms." binding:"required"`
	Priority   int    `json:"priority" example:"50"`
	Active     bool   `json:"active" example:"true"`
} // @name CreateRuleRequest

// UpdateRuleRequest represents the request body for updating a rule
type UpdateRuleRequest struct {
	Name       string `json:"name" example:"No bonus changes"`
	Kind       string `json:"kind" example:"guardrail"`
	Expression string `json:"expression" example:"query.contains(\"bonus\")"`
	Outcome    string `json:"outcome" example:"I cannot modify bonus terms."`
	Priority   int    `json:"priority" example:"50"`
	Active     bool   `json:"active" example:"true"`
} // @name UpdateRuleRequest

// RuleResponse represents a rule in API responses
type RuleResponse struct {
	ID         string    `json:"id" example:"rule-123e4567-e89b-12d3-a456-426614174000"`
	Name       string    `json:"name" example:"No bonus changes"`
	Kind       string    `json:"kind" example:"guardrail"`
	Expression string    `json:"expression" example:"query.contains(\"bonus\")"`
	Outcome    string    `json:"outcome" example:"I cannot modify bonus terms."`
	Priority   int       `json:"priority" example:"50"`
	Active     bool      `json:"active" example:"true"`
	CreatedAt  time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt  time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
} // @name RuleResponse

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"query is required"`
} // @name ErrorResponse

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
} // @name HealthResponse

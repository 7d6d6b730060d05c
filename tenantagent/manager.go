// Package tenantagent manages one action agent per tenant, each backed by
// its own database-scoped rule set compiled into its own engine.
package tenantagent

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/liamcoop/hractions/agent"
	"github.com/liamcoop/hractions/nldate"
	"github.com/liamcoop/hractions/policy"
)

// TenantAgent wraps a compiled agent with tenant metadata.
type TenantAgent struct {
	TenantID string
	Engine   *policy.Engine
	Agent    *agent.Agent
}

// Manager holds the agents for all loaded tenants.
type Manager struct {
	agents map[string]*TenantAgent
	db     *sql.DB
	clock  nldate.Clock
	mu     sync.RWMutex
}

// NewManager creates a manager. A nil clock anchors every tenant's date
// extraction to the system clock.
func NewManager(db *sql.DB, clock nldate.Clock) *Manager {
	return &Manager{
		agents: make(map[string]*TenantAgent),
		db:     db,
		clock:  clock,
	}
}

// LoadAllTenants loads every tenant from the database and compiles its
// rule set into an agent.
func (m *Manager) LoadAllTenants() error {
	rows, err := m.db.Query(`SELECT id FROM tenants`)
	if err != nil {
		return fmt.Errorf("failed to fetch tenants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			return fmt.Errorf("failed to scan tenant row: %w", err)
		}

		if err := m.CreateTenant(tenantID); err != nil {
			return fmt.Errorf("failed to initialize tenant %s: %w", tenantID, err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating tenant rows: %w", err)
	}

	return nil
}

// CreateTenant compiles the tenant's stored rules into a fresh agent and
// registers it.
func (m *Manager) CreateTenant(tenantID string) error {
	ta, err := m.buildAgent(tenantID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.agents[tenantID] = ta
	m.mu.Unlock()

	return nil
}

// GetAgent retrieves the agent for a specific tenant.
func (m *Manager) GetAgent(tenantID string) (*agent.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ta, exists := m.agents[tenantID]
	if !exists {
		return nil, fmt.Errorf("tenant %s not found", tenantID)
	}

	return ta.Agent, nil
}

// GetEngine retrieves the policy engine for a specific tenant, for rule
// management.
func (m *Manager) GetEngine(tenantID string) (*policy.Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ta, exists := m.agents[tenantID]
	if !exists {
		return nil, fmt.Errorf("tenant %s not found", tenantID)
	}

	return ta.Engine, nil
}

// ReloadTenant recompiles the tenant's rule set into a new engine and
// atomically swaps it in. In-flight requests keep using the old engine;
// the swap is zero-downtime.
func (m *Manager) ReloadTenant(tenantID string) error {
	ta, err := m.buildAgent(tenantID)
	if err != nil {
		return fmt.Errorf("failed to rebuild tenant %s: %w", tenantID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.agents[tenantID]; !exists {
		return fmt.Errorf("tenant %s not found", tenantID)
	}

	m.agents[tenantID] = ta
	return nil
}

// ListTenants returns all loaded tenant IDs.
func (m *Manager) ListTenants() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tenants := make([]string, 0, len(m.agents))
	for tenantID := range m.agents {
		tenants = append(tenants, tenantID)
	}
	return tenants
}

// DeleteTenant removes a tenant's agent from the manager.
// Note: this does not delete the tenant from the database.
func (m *Manager) DeleteTenant(tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.agents[tenantID]; !exists {
		return fmt.Errorf("tenant %s not found", tenantID)
	}

	delete(m.agents, tenantID)
	return nil
}

func (m *Manager) buildAgent(tenantID string) (*TenantAgent, error) {
	store := policy.NewPostgresRuleStore(m.db, tenantID)

	engine, err := policy.NewEngine(store)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return &TenantAgent{
		TenantID: tenantID,
		Engine:   engine,
		Agent:    agent.New(engine, m.clock),
	}, nil
}

package policy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
)

// Engine compiles rule expressions to CEL programs and evaluates them
// against a normalized query. Thread-safe for concurrent reads and
// concurrent compilation (RWMutex around the program cache).
type Engine struct {
	env      *cel.Env
	store    RuleStore
	cache    RulesCache             // cache for active rules list
	programs map[string]cel.Program // ruleID -> compiled program
	mu       sync.RWMutex
}

// NewEnv creates the CEL environment rules are compiled against. Every rule
// sees a single string variable: the lowercased, trimmed user query.
func NewEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("query", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// NewEngine creates a rules engine and compiles all active rules in the store.
func NewEngine(store RuleStore) (*Engine, error) {
	env, err := NewEnv()
	if err != nil {
		return nil, err
	}

	en := &Engine{
		env:      env,
		store:    store,
		cache:    NewInMemoryRulesCache(DefaultCacheConfig()),
		programs: make(map[string]cel.Program),
	}

	if err := en.CompileAllRules(); err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}

	return en, nil
}

// CompileRule compiles a single rule expression to a CEL program.
// A cost limit caps runaway expressions; state tracking enables tracing.
func (en *Engine) CompileRule(ruleID, expression string) error {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := en.env.Program(ast,
		cel.EvalOptions(cel.OptTrackState),
		cel.CostLimit(1000000),
	)
	if err != nil {
		return fmt.Errorf("program creation error: %w", err)
	}

	en.mu.Lock()
	en.programs[ruleID] = prog
	en.mu.Unlock()

	return nil
}

// CompileAllRules compiles all active rules from the store and populates
// the active-rules cache.
func (en *Engine) CompileAllRules() error {
	rules, err := en.store.ListActive()
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if err := en.CompileRule(rule.ID, rule.Expression); err != nil {
			return fmt.Errorf("failed to compile rule %s: %w", rule.ID, err)
		}
	}

	en.cache.Set(rules)

	return nil
}

// Evaluate evaluates a single rule against the query.
// Non-boolean expression results are treated as no-match.
func (en *Engine) Evaluate(ruleID, query string) (*EvaluationResult, error) {
	rule, err := en.store.Get(ruleID)
	if err != nil {
		return nil, err
	}

	en.mu.RLock()
	prog, exists := en.programs[ruleID]
	en.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("rule %s is not compiled", ruleID)
	}

	out, details, err := prog.Eval(map[string]any{"query": query})
	if err != nil {
		return &EvaluationResult{
			RuleID:   ruleID,
			RuleName: rule.Name,
			Matched:  false,
			Error:    err,
		}, err
	}

	matched := false
	if boolVal, ok := out.Value().(bool); ok {
		matched = boolVal
	}

	return &EvaluationResult{
		RuleID:   ruleID,
		RuleName: rule.Name,
		Matched:  matched,
		Trace:    details.State(),
	}, nil
}

// FirstMatch evaluates the active rules in evaluation order and returns the
// decision of the first one that matches, or nil if none do. Guardrails are
// always evaluated before intent rules regardless of priority values, so a
// forbidden request can never be routed to a handler. Rules whose evaluation
// errors are skipped rather than failing the whole pass.
func (en *Engine) FirstMatch(query string) (*Decision, error) {
	rules, err := en.activeRules()
	if err != nil {
		return nil, err
	}

	facts := map[string]any{"query": query}

	for _, rule := range rules {
		en.mu.RLock()
		prog, exists := en.programs[rule.ID]
		en.mu.RUnlock()

		if !exists {
			continue
		}

		out, _, err := prog.Eval(facts)
		if err != nil {
			continue
		}

		if matched, ok := out.Value().(bool); ok && matched {
			return &Decision{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Kind:     rule.Kind,
				Outcome:  rule.Outcome,
			}, nil
		}
	}

	return nil, nil
}

// EvaluateAll evaluates every active rule against the query, in evaluation
// order, and returns a result per rule. Evaluation continues past failures.
func (en *Engine) EvaluateAll(query string) ([]*EvaluationResult, error) {
	rules, err := en.activeRules()
	if err != nil {
		return nil, err
	}

	facts := map[string]any{"query": query}

	results := make([]*EvaluationResult, 0, len(rules))
	for _, rule := range rules {
		en.mu.RLock()
		prog, exists := en.programs[rule.ID]
		en.mu.RUnlock()

		if !exists {
			results = append(results, &EvaluationResult{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Matched:  false,
				Error:    fmt.Errorf("rule %s is not compiled", rule.ID),
			})
			continue
		}

		out, details, err := prog.Eval(facts)
		if err != nil {
			results = append(results, &EvaluationResult{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Matched:  false,
				Error:    err,
			})
			continue
		}

		matched := false
		if boolVal, ok := out.Value().(bool); ok {
			matched = boolVal
		}

		results = append(results, &EvaluationResult{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Matched:  matched,
			Trace:    details.State(),
		})
	}

	return results, nil
}

// activeRules returns the active rules in evaluation order, going through
// the cache to avoid a store round-trip per request.
func (en *Engine) activeRules() ([]*Rule, error) {
	rules := en.cache.Get()

	if rules == nil {
		var err error
		rules, err = en.store.ListActive()
		if err != nil {
			return nil, err
		}
		en.cache.Set(rules)
	}

	sortForEvaluation(rules)
	return rules, nil
}

// sortForEvaluation orders rules guardrails-first, then by ascending
// priority, then by ID for a stable tiebreak.
func sortForEvaluation(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Kind != rules[j].Kind {
			return rules[i].Kind == KindGuardrail
		}
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}

// AddRule validates, compiles and stores a new rule.
// The compiled program is removed again if the store rejects the rule.
func (en *Engine) AddRule(r *Rule) error {
	_, err := en.store.Get(r.ID)
	if err == nil {
		return fmt.Errorf("rule with ID %s already exists", r.ID)
	}

	if err := en.CompileRule(r.ID, r.Expression); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Add(r); err != nil {
		en.mu.Lock()
		delete(en.programs, r.ID)
		en.mu.Unlock()
		return err
	}

	en.cache.Invalidate()

	return nil
}

// UpdateRule recompiles an existing rule and updates it in the store.
func (en *Engine) UpdateRule(r *Rule) error {
	if err := en.CompileRule(r.ID, r.Expression); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Update(r); err != nil {
		return err
	}

	en.cache.Invalidate()

	return nil
}

// DeleteRule removes a rule from the store and the compiled program cache.
func (en *Engine) DeleteRule(ruleID string) error {
	if err := en.store.Delete(ruleID); err != nil {
		return err
	}

	en.mu.Lock()
	delete(en.programs, ruleID)
	en.mu.Unlock()

	en.cache.Invalidate()

	return nil
}

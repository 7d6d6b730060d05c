// Package agent is the deterministic action layer of the HR assistant: it
// takes one free-text utterance and produces exactly one typed result — a
// guardrail refusal, a structured action payload, or the informational
// fallback. No statistical model is involved and no invocation mutates any
// state; given the same query and the same clock, the output is identical.
package agent

import (
	"fmt"
	"strings"

	"github.com/liamcoop/hractions/actions"
	"github.com/liamcoop/hractions/nldate"
	"github.com/liamcoop/hractions/policy"
)

// Agent routes normalized queries through the policy engine and dispatches
// matched intents to their action handlers. Safe for concurrent use.
type Agent struct {
	engine   *policy.Engine
	dates    *nldate.Extractor
	handlers map[actions.ActionType]actions.Handler
}

// New creates an agent over an already-constructed policy engine. A nil
// clock anchors date extraction to the system clock.
func New(engine *policy.Engine, clock nldate.Clock) *Agent {
	return &Agent{
		engine:   engine,
		dates:    nldate.NewExtractor(clock),
		handlers: actions.Handlers(),
	}
}

// NewBuiltin creates an agent with the built-in guardrail and intent rules
// compiled into an in-memory store. This is the default configuration when
// no database backs the rule set.
func NewBuiltin(clock nldate.Clock) (*Agent, error) {
	engine, err := policy.NewEngine(policy.NewBuiltinRuleStore())
	if err != nil {
		return nil, fmt.Errorf("failed to build builtin engine: %w", err)
	}
	return New(engine, clock), nil
}

// Execute runs one utterance through the full chain: normalize, guardrail
// check, intent routing, slot extraction. A guardrail match short-circuits
// routing entirely; an unrouted query falls back to the informational menu.
func (a *Agent) Execute(query string) (actions.Result, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))

	decision, err := a.engine.FirstMatch(normalized)
	if err != nil {
		return actions.Result{}, fmt.Errorf("rule evaluation failed: %w", err)
	}

	if decision == nil {
		return actions.Informational(actions.MenuAnswer), nil
	}

	if decision.Kind == policy.KindGuardrail {
		return actions.Refuse(decision.Outcome), nil
	}

	handler, ok := a.handlers[actions.ActionType(decision.Outcome)]
	if !ok {
		// An intent rule naming an unknown action is a configuration
		// mistake; degrade to the informational fallback rather than fail.
		return actions.Informational(actions.MenuAnswer), nil
	}

	return actions.ForAction(handler.Handle(normalized, a.dates)), nil
}

// ExecuteText runs Execute and renders the result for text consumers:
// refusals stay plain text, everything else is indented JSON.
func (a *Agent) ExecuteText(query string) (string, error) {
	result, err := a.Execute(query)
	if err != nil {
		return "", err
	}
	return result.Render()
}

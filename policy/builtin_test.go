package policy

import (
	"strings"
	"testing"
)

// builtinEngine compiles the default rule set once per test.
func builtinEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(NewBuiltinRuleStore())
	if err != nil {
		t.Fatalf("failed to compile builtin rules: %v", err)
	}
	return engine
}

// TestBuiltinRulesCompile verifies every built-in expression compiles in
// the standard environment.
func TestBuiltinRulesCompile(t *testing.T) {
	engine, err := NewEngine(NewInMemoryRuleStore())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	for _, rule := range BuiltinRules() {
		if err := engine.CompileRule(rule.ID, rule.Expression); err != nil {
			t.Errorf("builtin rule %s does not compile: %v", rule.ID, err)
		}
	}
}

// TestBuiltinGuardrails routes representative forbidden queries through the
// full rule set and checks the refusal they resolve to.
func TestBuiltinGuardrails(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantRule string
	}{
		{"approve a request", "approve my leave request", "guardrail-approvals"},
		{"authorize an expense", "authorize this expense", "guardrail-approvals"},
		{"increase pay", "increase my pay", "guardrail-contracts"},
		{"change compensation", "change my compensation package", "guardrail-contracts"},
		{"view peer records", "view my peer's attendance", "guardrail-records"},
		{"fire someone", "fire the contractor", "guardrail-strategic"},
		{"recruit someone", "recruit a replacement", "guardrail-strategic"},
	}

	engine := builtinEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := engine.FirstMatch(tt.query)
			if err != nil {
				t.Fatalf("FirstMatch(%q) failed: %v", tt.query, err)
			}
			if decision == nil {
				t.Fatalf("FirstMatch(%q) matched nothing", tt.query)
			}
			if decision.RuleID != tt.wantRule {
				t.Errorf("FirstMatch(%q) = %s, want %s", tt.query, decision.RuleID, tt.wantRule)
			}
			if decision.Kind != KindGuardrail {
				t.Errorf("Kind = %s, want guardrail", decision.Kind)
			}
			if !strings.HasPrefix(decision.Outcome, "I can") {
				t.Errorf("guardrail outcome is not a refusal message: %q", decision.Outcome)
			}
		})
	}
}

// TestBuiltinGuardrailsNeedBothTerms verifies the guardrails require both
// an action verb and a protected object: partial matches route on.
func TestBuiltinGuardrailsNeedBothTerms(t *testing.T) {
	tests := []struct {
		query      string
		wantIntent string
	}{
		// "approve" without a request-like object is no guardrail hit, and
		// no intent either.
		{"i approve of this plan", ""},
		// "salary" without a change verb routes nowhere.
		{"what is a typical salary", ""},
		// "leave" alone is the leave intent, not the approvals guardrail.
		{"i need leave", "intent-apply-leave"},
	}

	engine := builtinEngine(t)
	for _, tt := range tests {
		decision, err := engine.FirstMatch(tt.query)
		if err != nil {
			t.Fatalf("FirstMatch(%q) failed: %v", tt.query, err)
		}
		if tt.wantIntent == "" {
			if decision != nil {
				t.Errorf("FirstMatch(%q) = %s, want no match", tt.query, decision.RuleID)
			}
			continue
		}
		if decision == nil || decision.RuleID != tt.wantIntent {
			t.Errorf("FirstMatch(%q) = %+v, want %s", tt.query, decision, tt.wantIntent)
		}
	}
}

// TestBuiltinStrategicCarveOut verifies meeting and scheduling phrases
// suppress the strategic guardrail.
func TestBuiltinStrategicCarveOut(t *testing.T) {
	engine := builtinEngine(t)

	decision, err := engine.FirstMatch("schedule a meeting about the termination")
	if err != nil {
		t.Fatalf("FirstMatch() failed: %v", err)
	}
	if decision == nil {
		t.Fatal("expected the meeting intent to match")
	}
	if decision.RuleID != "intent-schedule-meeting" {
		t.Errorf("RuleID = %s, want intent-schedule-meeting", decision.RuleID)
	}
}

// TestBuiltinIntentPriority verifies a query matching several intent groups
// resolves to the lowest-priority one.
func TestBuiltinIntentPriority(t *testing.T) {
	engine := builtinEngine(t)

	// Matches both the leave intent (priority 10) and the ticket intent
	// ("issue", priority 20).
	decision, err := engine.FirstMatch("leave issue")
	if err != nil {
		t.Fatalf("FirstMatch() failed: %v", err)
	}
	if decision == nil || decision.RuleID != "intent-apply-leave" {
		t.Errorf("decision = %+v, want intent-apply-leave", decision)
	}
}

// TestBuiltinIntentOutcomes verifies each intent rule carries the action
// type its handler is registered under.
func TestBuiltinIntentOutcomes(t *testing.T) {
	want := map[string]string{
		"intent-apply-leave":      "APPLY_LEAVE",
		"intent-raise-ticket":     "RAISE_TICKET",
		"intent-schedule-meeting": "SCHEDULE_MEETING",
		"intent-claim-allowance":  "CLAIM_ALLOWANCE",
		"intent-escalate":         "ESCALATE_TO_HUMAN",
	}

	for _, rule := range BuiltinRules() {
		if rule.Kind != KindIntent {
			continue
		}
		if wantOutcome, ok := want[rule.ID]; !ok {
			t.Errorf("unexpected intent rule %s", rule.ID)
		} else if rule.Outcome != wantOutcome {
			t.Errorf("%s outcome = %s, want %s", rule.ID, rule.Outcome, wantOutcome)
		}
	}
}

// TestAnyOf verifies the expression builder quotes terms safely.
func TestAnyOf(t *testing.T) {
	expr := anyOf("leave", `quo"ted`)
	if !strings.Contains(expr, `"leave"`) {
		t.Errorf("anyOf() = %s", expr)
	}
	if !strings.Contains(expr, `"quo\"ted"`) {
		t.Errorf("anyOf() does not escape quotes: %s", expr)
	}

	engine, err := NewEngine(NewInMemoryRuleStore())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	if err := engine.CompileRule("anyof", expr); err != nil {
		t.Errorf("generated expression does not compile: %v", err)
	}
}

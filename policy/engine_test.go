package policy

import (
	"strings"
	"sync"
	"testing"
)

func intentRule(id, expression, outcome string, priority int) *Rule {
	return &Rule{
		ID:         id,
		Name:       id,
		Kind:       KindIntent,
		Expression: expression,
		Outcome:    outcome,
		Priority:   priority,
		Active:     true,
	}
}

func guardrailRule(id, expression, outcome string, priority int) *Rule {
	r := intentRule(id, expression, outcome, priority)
	r.Kind = KindGuardrail
	return r
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(NewInMemoryRuleStore())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	if engine == nil {
		t.Fatal("NewEngine() should return non-nil engine")
	}
}

// TestNewEngineCompilesExistingRules verifies active rules in the store are
// compiled at construction and inactive ones are skipped.
func TestNewEngineCompilesExistingRules(t *testing.T) {
	store := NewInMemoryRuleStore()

	rules := []*Rule{
		intentRule("rule-1", `query.contains("leave")`, "APPLY_LEAVE", 10),
		intentRule("rule-2", `query.contains("ticket")`, "RAISE_TICKET", 20),
	}
	inactive := intentRule("rule-3", `query.contains("gym")`, "BOOK_GYM", 30)
	inactive.Active = false
	rules = append(rules, inactive)

	for _, rule := range rules {
		if err := store.Add(rule); err != nil {
			t.Fatalf("failed to add rule: %v", err)
		}
	}

	engine, err := NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	result, err := engine.Evaluate("rule-1", "i need leave")
	if err != nil {
		t.Fatalf("Evaluate() failed for pre-compiled rule: %v", err)
	}
	if !result.Matched {
		t.Error("rule-1 should have matched")
	}

	if _, err := engine.Evaluate("rule-3", "gym"); err == nil {
		t.Error("inactive rule should not be compiled")
	}
}

// TestNewEngineFailsOnBadExpression verifies a store containing an
// uncompilable active rule fails engine construction.
func TestNewEngineFailsOnBadExpression(t *testing.T) {
	store := NewInMemoryRuleStore()
	if err := store.Add(intentRule("broken", `query.contains(`, "X", 10)); err != nil {
		t.Fatalf("failed to add rule: %v", err)
	}

	if _, err := NewEngine(store); err == nil {
		t.Error("NewEngine() should fail when an active rule does not compile")
	}
}

func TestCompileRuleRejectsInvalidExpressions(t *testing.T) {
	engine, err := NewEngine(NewInMemoryRuleStore())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	invalid := []string{
		`query.contains(`,
		`unknown_var == "x"`,
		`query.`,
	}
	for _, expr := range invalid {
		if err := engine.CompileRule("bad", expr); err == nil {
			t.Errorf("CompileRule(%q) should fail", expr)
		}
	}
}

// TestEvaluateNonBooleanIsNoMatch verifies expressions that resolve to a
// non-boolean value are treated as not matched.
func TestEvaluateNonBooleanIsNoMatch(t *testing.T) {
	store := NewInMemoryRuleStore()
	if err := store.Add(intentRule("stringy", `query + "x"`, "X", 10)); err != nil {
		t.Fatalf("failed to add rule: %v", err)
	}

	engine, err := NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	result, err := engine.Evaluate("stringy", "hello")
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if result.Matched {
		t.Error("non-boolean result should be treated as no-match")
	}
}

// TestFirstMatchOrdering verifies rules evaluate in priority order within a
// kind and the first match wins.
func TestFirstMatchOrdering(t *testing.T) {
	store := NewInMemoryRuleStore()
	// Both rules match "ticket"; the lower priority must win.
	if err := store.Add(intentRule("second", `query.contains("ticket")`, "SECOND", 20)); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(intentRule("first", `query.contains("ticket")`, "FIRST", 10)); err != nil {
		t.Fatal(err)
	}

	engine, err := NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	decision, err := engine.FirstMatch("raise a ticket")
	if err != nil {
		t.Fatalf("FirstMatch() failed: %v", err)
	}
	if decision == nil {
		t.Fatal("FirstMatch() returned no decision")
	}
	if decision.Outcome != "FIRST" {
		t.Errorf("Outcome = %s, want FIRST", decision.Outcome)
	}
}

// TestFirstMatchGuardrailsBeforeIntents verifies guardrails evaluate before
// intent rules regardless of their priority values.
func TestFirstMatchGuardrailsBeforeIntents(t *testing.T) {
	store := NewInMemoryRuleStore()
	if err := store.Add(intentRule("intent", `query.contains("leave")`, "APPLY_LEAVE", 1)); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(guardrailRule("guardrail", `query.contains("approve")`, "refused", 9999)); err != nil {
		t.Fatal(err)
	}

	engine, err := NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	decision, err := engine.FirstMatch("approve my leave")
	if err != nil {
		t.Fatalf("FirstMatch() failed: %v", err)
	}
	if decision == nil {
		t.Fatal("FirstMatch() returned no decision")
	}
	if decision.Kind != KindGuardrail {
		t.Errorf("Kind = %s, want guardrail", decision.Kind)
	}
	if decision.RuleID != "guardrail" {
		t.Errorf("RuleID = %s, want guardrail", decision.RuleID)
	}
}

// TestFirstMatchNoMatch verifies a clean miss returns nil without error.
func TestFirstMatchNoMatch(t *testing.T) {
	store := NewInMemoryRuleStore()
	if err := store.Add(intentRule("leave", `query.contains("leave")`, "APPLY_LEAVE", 10)); err != nil {
		t.Fatal(err)
	}

	engine, err := NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	decision, err := engine.FirstMatch("hello there")
	if err != nil {
		t.Fatalf("FirstMatch() failed: %v", err)
	}
	if decision != nil {
		t.Errorf("expected nil decision, got %+v", decision)
	}
}

// TestEvaluateAll verifies every active rule produces one result and
// evaluation continues past individual failures.
func TestEvaluateAll(t *testing.T) {
	store := NewInMemoryRuleStore()
	if err := store.Add(intentRule("a", `query.contains("leave")`, "A", 10)); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(intentRule("b", `query.contains("ticket")`, "B", 20)); err != nil {
		t.Fatal(err)
	}

	engine, err := NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	results, err := engine.EvaluateAll("i need leave")
	if err != nil {
		t.Fatalf("EvaluateAll() failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !results[0].Matched || results[0].RuleID != "a" {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].Matched {
		t.Errorf("rule b should not match: %+v", results[1])
	}
}

// TestAddRuleRejectsInvalid verifies AddRule validates the expression
// before touching the store.
func TestAddRuleRejectsInvalid(t *testing.T) {
	store := NewInMemoryRuleStore()
	engine, err := NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	bad := intentRule("bad", `query.contains(`, "X", 10)
	if err := engine.AddRule(bad); err == nil {
		t.Fatal("AddRule() should reject an uncompilable expression")
	}
	if _, err := store.Get("bad"); err == nil {
		t.Error("rejected rule must not be stored")
	}
}

func TestAddRuleRejectsDuplicate(t *testing.T) {
	engine, err := NewEngine(NewInMemoryRuleStore())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	r := intentRule("dup", `query.contains("x")`, "X", 10)
	if err := engine.AddRule(r); err != nil {
		t.Fatalf("AddRule() failed: %v", err)
	}
	if err := engine.AddRule(intentRule("dup", `query.contains("y")`, "Y", 20)); err == nil {
		t.Error("AddRule() should reject a duplicate ID")
	}
}

// TestAddRuleTakesEffect verifies a newly added rule participates in
// FirstMatch on the next evaluation.
func TestAddRuleTakesEffect(t *testing.T) {
	engine, err := NewEngine(NewInMemoryRuleStore())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	if err := engine.AddRule(intentRule("gym", `query.contains("gym")`, "BOOK_GYM", 10)); err != nil {
		t.Fatalf("AddRule() failed: %v", err)
	}

	decision, err := engine.FirstMatch("book a gym slot")
	if err != nil {
		t.Fatalf("FirstMatch() failed: %v", err)
	}
	if decision == nil || decision.Outcome != "BOOK_GYM" {
		t.Errorf("decision = %+v, want BOOK_GYM", decision)
	}
}

func TestUpdateRuleTakesEffect(t *testing.T) {
	engine, err := NewEngine(NewInMemoryRuleStore())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	if err := engine.AddRule(intentRule("r", `query.contains("old")`, "OLD", 10)); err != nil {
		t.Fatalf("AddRule() failed: %v", err)
	}
	if err := engine.UpdateRule(intentRule("r", `query.contains("new")`, "NEW", 10)); err != nil {
		t.Fatalf("UpdateRule() failed: %v", err)
	}

	if d, _ := engine.FirstMatch("something old"); d != nil {
		t.Errorf("old expression still matching: %+v", d)
	}
	d, err := engine.FirstMatch("something new")
	if err != nil {
		t.Fatalf("FirstMatch() failed: %v", err)
	}
	if d == nil || d.Outcome != "NEW" {
		t.Errorf("decision = %+v, want NEW", d)
	}
}

func TestDeleteRuleTakesEffect(t *testing.T) {
	engine, err := NewEngine(NewInMemoryRuleStore())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	if err := engine.AddRule(intentRule("r", `query.contains("x")`, "X", 10)); err != nil {
		t.Fatalf("AddRule() failed: %v", err)
	}
	if err := engine.DeleteRule("r"); err != nil {
		t.Fatalf("DeleteRule() failed: %v", err)
	}

	if d, _ := engine.FirstMatch("x marks the spot"); d != nil {
		t.Errorf("deleted rule still matching: %+v", d)
	}
	if err := engine.DeleteRule("r"); err == nil {
		t.Error("deleting a missing rule should fail")
	}
}

// TestFirstMatchConcurrent exercises concurrent evaluation against
// concurrent rule mutation.
func TestFirstMatchConcurrent(t *testing.T) {
	engine, err := NewEngine(NewInMemoryRuleStore())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	if err := engine.AddRule(intentRule("stable", `query.contains("leave")`, "APPLY_LEAVE", 10)); err != nil {
		t.Fatalf("AddRule() failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := engine.FirstMatch("i need leave"); err != nil {
					t.Errorf("FirstMatch() failed: %v", err)
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			r := intentRule("churn", `query.contains("churn")`, "CHURN", 20)
			if err := engine.AddRule(r); err != nil {
				t.Errorf("AddRule() failed: %v", err)
				return
			}
			if err := engine.DeleteRule("churn"); err != nil {
				t.Errorf("DeleteRule() failed: %v", err)
				return
			}
		}
	}()

	wg.Wait()
}

func TestCompileRuleErrorMessage(t *testing.T) {
	engine, err := NewEngine(NewInMemoryRuleStore())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	err = engine.CompileRule("bad", `nonsense(`)
	if err == nil {
		t.Fatal("CompileRule() should fail")
	}
	if !strings.Contains(err.Error(), "compile error") {
		t.Errorf("error should name the compile stage: %v", err)
	}
}

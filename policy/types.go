package policy

import "time"

// RuleKind separates guardrails (requests the assistant must refuse) from
// intent rules (requests it routes to an action handler).
type RuleKind string

const (
	KindGuardrail RuleKind = "guardrail"
	KindIntent    RuleKind = "intent"
)

// Rule is a single ordered policy rule. The expression is a CEL predicate
// over a normalized query string; Outcome carries the refusal text for
// guardrails and the action type for intent rules.
type Rule struct {
	ID         string
	Name       string
	Kind       RuleKind
	Expression string
	Outcome    string
	Priority   int
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decision is the outcome of a first-match evaluation pass. A nil Decision
// means no active rule matched the query.
type Decision struct {
	RuleID   string
	RuleName string
	Kind     RuleKind
	Outcome  string
}

// EvaluationResult contains the outcome of evaluating a single rule
type EvaluationResult struct {
	RuleID   string
	RuleName string
	Matched  bool
	Error    error
	Trace    any // CEL evaluation trace (optional)
}

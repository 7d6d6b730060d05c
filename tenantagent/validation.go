package tenantagent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/liamcoop/hractions/actions"
	"github.com/liamcoop/hractions/policy"
)

const (
	maxRuleNameLength    = 200
	maxExpressionLength  = 2000
	maxOutcomeLength     = 500
	maxPriority          = 10000
)

var validRuleID = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// knownActionTypes are the outcomes an intent rule may route to.
var knownActionTypes = map[actions.ActionType]bool{
	actions.ActionApplyLeave:      true,
	actions.ActionRaiseTicket:     true,
	actions.ActionScheduleMeeting: true,
	actions.ActionClaimAllowance:  true,
	actions.ActionEscalate:        true,
}

// ValidateRule checks a rule before it is stored for a tenant: identifier
// shape, kind, outcome contract, priority bounds, and that the expression
// compiles against the query environment.
func ValidateRule(rule *policy.Rule) error {
	if rule == nil {
		return fmt.Errorf("rule cannot be nil")
	}

	if rule.ID == "" {
		return fmt.Errorf("rule ID cannot be empty")
	}
	if len(rule.ID) > 100 {
		return fmt.Errorf("rule ID length %d exceeds maximum of 100 characters", len(rule.ID))
	}
	if !validRuleID.MatchString(rule.ID) {
		return fmt.Errorf("invalid rule ID %q: must contain only letters, digits, hyphens and underscores", rule.ID)
	}

	if rule.Name == "" {
		return fmt.Errorf("rule name cannot be empty")
	}
	if len(rule.Name) > maxRuleNameLength {
		return fmt.Errorf("rule name length %d exceeds maximum of %d characters", len(rule.Name), maxRuleNameLength)
	}

	if rule.Kind != policy.KindGuardrail && rule.Kind != policy.KindIntent {
		return fmt.Errorf("invalid rule kind %q (must be %q or %q)", rule.Kind, policy.KindGuardrail, policy.KindIntent)
	}

	if err := validateOutcome(rule); err != nil {
		return err
	}

	if rule.Priority < 0 || rule.Priority > maxPriority {
		return fmt.Errorf("rule priority %d out of range [0, %d]", rule.Priority, maxPriority)
	}

	if rule.Expression == "" {
		return fmt.Errorf("rule expression cannot be empty")
	}
	if len(rule.Expression) > maxExpressionLength {
		return fmt.Errorf("rule expression length %d exceeds maximum of %d characters", len(rule.Expression), maxExpressionLength)
	}

	env, err := policy.NewEnv()
	if err != nil {
		return fmt.Errorf("failed to create CEL environment: %w", err)
	}
	if _, issues := env.Compile(rule.Expression); issues != nil && issues.Err() != nil {
		return fmt.Errorf("rule expression does not compile: %w", issues.Err())
	}

	return nil
}

// validateOutcome enforces the consumer contract per kind: a guardrail
// outcome is the refusal text itself and must not look like JSON (consumers
// branch on parse failure to recognize refusals); an intent outcome must
// name a known action type.
func validateOutcome(rule *policy.Rule) error {
	outcome := strings.TrimSpace(rule.Outcome)
	if outcome == "" {
		return fmt.Errorf("rule outcome cannot be empty")
	}
	if len(outcome) > maxOutcomeLength {
		return fmt.Errorf("rule outcome length %d exceeds maximum of %d characters", len(outcome), maxOutcomeLength)
	}

	switch rule.Kind {
	case policy.KindGuardrail:
		if strings.HasPrefix(outcome, "{") || strings.HasPrefix(outcome, "[") {
			return fmt.Errorf("guardrail outcome must be plain refusal text, not JSON")
		}
	case policy.KindIntent:
		if !knownActionTypes[actions.ActionType(outcome)] {
			return fmt.Errorf("intent outcome %q is not a known action type", outcome)
		}
	}

	return nil
}

// ValidateRuleSet validates a batch of rules and rejects duplicate IDs.
func ValidateRuleSet(rules []*policy.Rule) error {
	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if err := ValidateRule(rule); err != nil {
			return err
		}
		if seen[rule.ID] {
			return fmt.Errorf("duplicate rule ID %q", rule.ID)
		}
		seen[rule.ID] = true
	}
	return nil
}

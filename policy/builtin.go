package policy

import (
	"fmt"
	"strconv"
	"strings"
)

// Refusal messages returned when a guardrail matches. These are plain text
// on purpose: consumers branch on JSON-parse failure to tell refusals apart
// from action payloads.
const (
	RefusalApprovals = "I cannot approve requests. Please contact your manager."
	RefusalContracts = "I cannot modify contracts. Please raise a Payroll ticket."
	RefusalRecords   = "I can only access your personal records."
	RefusalStrategic = "I cannot perform strategic HR functions like hiring or termination."
)

// anyOf builds a CEL predicate that is true when the query contains at
// least one of the given terms.
func anyOf(terms ...string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = strconv.Quote(t)
	}
	return fmt.Sprintf("[%s].exists(w, query.contains(w))", strings.Join(quoted, ", "))
}

func allOf(predicates ...string) string {
	return strings.Join(predicates, " && ")
}

func not(predicate string) string {
	return "!" + predicate
}

// BuiltinRules returns the default rule set: four guardrails and five
// intent routes. Priority encodes evaluation order within each kind; the
// engine always runs guardrails before intents. A fresh slice is returned
// on every call so callers may mutate their copy.
func BuiltinRules() []*Rule {
	return []*Rule{
		// Guardrails. First match refuses the request outright.
		{
			ID:   "guardrail-approvals",
			Name: "No approving or rejecting requests",
			Kind: KindGuardrail,
			Expression: allOf(
				anyOf("approve", "reject", "authorize"),
				anyOf("request", "application", "leave", "expense"),
			),
			Outcome:  RefusalApprovals,
			Priority: 10,
			Active:   true,
		},
		{
			ID:   "guardrail-contracts",
			Name: "No salary or contract changes",
			Kind: KindGuardrail,
			Expression: allOf(
				anyOf("modify", "change", "increase", "decrease", "update"),
				anyOf("salary", "contract", "pay", "compensation", "ctc"),
			),
			Outcome:  RefusalContracts,
			Priority: 20,
			Active:   true,
		},
		{
			ID:   "guardrail-records",
			Name: "No viewing other employees' records",
			Kind: KindGuardrail,
			Expression: allOf(
				`query.contains("view")`,
				anyOf("other", "colleague", "employee", "manager", "peer"),
			),
			Outcome:  RefusalRecords,
			Priority: 30,
			Active:   true,
		},
		{
			// Scheduling a meeting about a termination is allowed, hence
			// the meeting/schedule carve-out.
			ID:   "guardrail-strategic",
			Name: "No hiring or termination",
			Kind: KindGuardrail,
			Expression: allOf(
				anyOf("fire", "terminate", "hire", "recruit"),
				not(anyOf("meeting", "schedule")),
			),
			Outcome:  RefusalStrategic,
			Priority: 40,
			Active:   true,
		},

		// Intent routes, in fixed priority order. A query matching several
		// groups resolves to the lowest-priority match.
		{
			ID:         "intent-apply-leave",
			Name:       "Apply for leave",
			Kind:       KindIntent,
			Expression: anyOf("leave", "time off", "vacation", "sick day"),
			Outcome:    "APPLY_LEAVE",
			Priority:   10,
			Active:     true,
		},
		{
			ID:         "intent-raise-ticket",
			Name:       "Raise a support ticket",
			Kind:       KindIntent,
			Expression: anyOf("ticket", "issue", "it support", "bug", "software", "laptop", "access", "payroll issue"),
			Outcome:    "RAISE_TICKET",
			Priority:   20,
			Active:     true,
		},
		{
			ID:         "intent-schedule-meeting",
			Name:       "Schedule a meeting",
			Kind:       KindIntent,
			Expression: anyOf("meeting", "schedule", "calendar", "meet with", "appointment"),
			Outcome:    "SCHEDULE_MEETING",
			Priority:   30,
			Active:     true,
		},
		{
			ID:         "intent-claim-allowance",
			Name:       "Claim an allowance",
			Kind:       KindIntent,
			Expression: anyOf("allowance", "reimburse", "claim", "expense", "bill", "stipend"),
			Outcome:    "CLAIM_ALLOWANCE",
			Priority:   40,
			Active:     true,
		},
		{
			ID:         "intent-escalate",
			Name:       "Escalate to a human",
			Kind:       KindIntent,
			Expression: anyOf("escalate", "human", "talk to", "person", "representative", "complaint", "frustrated"),
			Outcome:    "ESCALATE_TO_HUMAN",
			Priority:   50,
			Active:     true,
		},
	}
}

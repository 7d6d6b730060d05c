package actions

import (
	"encoding/json"
	"fmt"
)

// ResultKind tags the three possible outcomes of executing a query.
type ResultKind string

const (
	ResultRefusal       ResultKind = "Refusal"
	ResultAction        ResultKind = "Action"
	ResultInformational ResultKind = "Informational"
)

// Result is the typed outcome of one engine invocation. Exactly one of the
// payload fields is set, according to Kind. Serialization to text happens
// only in Render, at the outermost boundary.
type Result struct {
	Kind          ResultKind
	Refusal       string
	Action        *ActionPayload
	Informational *InformationalPayload
}

// Refuse wraps a guardrail refusal message.
func Refuse(message string) Result {
	return Result{Kind: ResultRefusal, Refusal: message}
}

// ForAction wraps a handler's action body in the canonical envelope.
func ForAction(body ActionBody) Result {
	return Result{
		Kind: ResultAction,
		Action: &ActionPayload{
			Intent: "Action",
			Body:   body,
		},
	}
}

// Informational wraps a fallback answer.
func Informational(answer string) Result {
	return Result{
		Kind: ResultInformational,
		Informational: &InformationalPayload{
			Intent: "Informational",
			Answer: answer,
		},
	}
}

// Render serializes the result for the consumer contract: refusals are
// plain text and never parse as JSON; action and informational results are
// always valid, indented JSON with stable key order.
func (r Result) Render() (string, error) {
	switch r.Kind {
	case ResultRefusal:
		return r.Refusal, nil
	case ResultAction:
		return renderJSON(r.Action)
	case ResultInformational:
		return renderJSON(r.Informational)
	default:
		return "", fmt.Errorf("unknown result kind %q", r.Kind)
	}
}

func renderJSON(payload any) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render payload: %w", err)
	}
	return string(data), nil
}

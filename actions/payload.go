package actions

// ActionType identifies one of the supported mock enterprise actions.
type ActionType string

const (
	ActionApplyLeave      ActionType = "APPLY_LEAVE"
	ActionRaiseTicket     ActionType = "RAISE_TICKET"
	ActionScheduleMeeting ActionType = "SCHEDULE_MEETING"
	ActionClaimAllowance  ActionType = "CLAIM_ALLOWANCE"
	ActionEscalate        ActionType = "ESCALATE_TO_HUMAN"
)

// Verification markers name the downstream workflow stage each mock action
// simulates. No real side effect ever occurs.
const (
	VerificationPendingApproval = "PENDING_APPROVAL"
	VerificationTicketCreated   = "TICKET_CREATED"
	VerificationSlotBooked      = "SLOT_BOOKED"
	VerificationHumanHandoff    = "HUMAN_HANDOFF"
)

// MenuAnswer is the fixed informational fallback listing the supported
// actions, returned when no guardrail and no intent rule matched.
const MenuAnswer = "I can help you Apply Leave, Raise Tickets, Schedule Meetings, Claim Allowances, or Escalate issues. How can I assist?"

// ActionPayload is the canonical envelope for an action result. Field order
// is the serialization order, which keeps rendered output deterministic and
// diff-friendly.
type ActionPayload struct {
	Intent string     `json:"intent"` // always "Action"
	Body   ActionBody `json:"json"`
} // @name ActionPayload

// ActionBody carries the action identifier, its extracted parameters, and
// either a verification marker or a policy check.
type ActionBody struct {
	ActionType  ActionType   `json:"action_type"`
	Parameters  any          `json:"parameters"`
	Verification string      `json:"verification,omitempty"`
	PolicyCheck *PolicyCheck `json:"policy_check,omitempty"`
} // @name ActionBody

// PolicyCheck is the eligibility verdict attached to allowance claims.
// Eligible never flips to false in the current rule set; out-of-policy
// amounts only change the reason to a secondary-approval warning.
type PolicyCheck struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
} // @name PolicyCheck

// InformationalPayload is the no-intent-matched fallback response.
type InformationalPayload struct {
	Intent string `json:"intent"` // always "Informational"
	Answer string `json:"answer"`
} // @name InformationalPayload

// LeaveParameters are the extracted slots for APPLY_LEAVE.
type LeaveParameters struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
} // @name LeaveParameters

// TicketParameters are the extracted slots for RAISE_TICKET.
type TicketParameters struct {
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
} // @name TicketParameters

// MeetingParameters are the extracted slots for SCHEDULE_MEETING.
type MeetingParameters struct {
	Department string `json:"department"`
	DateTime   string `json:"date_time"`
	Topic      string `json:"topic"`
} // @name MeetingParameters

// AllowanceParameters are the extracted slots for CLAIM_ALLOWANCE.
type AllowanceParameters struct {
	Category      string `json:"category"`
	Amount        int    `json:"amount"`
	Justification string `json:"justification"`
} // @name AllowanceParameters

// EscalationParameters are the extracted slots for ESCALATE_TO_HUMAN.
type EscalationParameters struct {
	Reason  string `json:"reason"`
	Summary string `json:"summary"`
	Urgency string `json:"urgency"`
} // @name EscalationParameters

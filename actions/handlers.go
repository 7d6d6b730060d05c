// Package actions turns a routed query into a structured action payload.
// Each handler fills its slots from keyword tables and the shared date
// extractor, with a concrete default for every slot: handlers never fail,
// they produce the most plausible action the utterance supports.
package actions

import (
	"regexp"
	"strings"

	"github.com/liamcoop/hractions/nldate"
)

// Handler extracts the parameters for one action type from a normalized
// query and assembles the action body.
type Handler interface {
	Type() ActionType
	Handle(query string, dates *nldate.Extractor) ActionBody
}

// Handlers returns the registry of all supported action handlers, keyed by
// the action type that intent rules name in their outcome.
func Handlers() map[ActionType]Handler {
	registry := make(map[ActionType]Handler)
	for _, h := range []Handler{
		leaveHandler{},
		ticketHandler{},
		meetingHandler{},
		allowanceHandler{},
		escalationHandler{},
	} {
		registry[h.Type()] = h
	}
	return registry
}

var urgencyTerms = []string{"urgent", "critical", "blocking", "immediately"}

// leaveHandler fills the APPLY_LEAVE slots. The leave-type and reason
// tables are independent: "sick" drives both, but an emergency or family
// reason can accompany any leave type.
type leaveHandler struct{}

func (leaveHandler) Type() ActionType { return ActionApplyLeave }

func (leaveHandler) Handle(query string, dates *nldate.Extractor) ActionBody {
	leaveType := firstKeyword(query, []keywordRule{
		{terms: []string{"sick"}, value: "SICK"},
		{terms: []string{"casual"}, value: "CASUAL"},
	}, "ANNUAL")

	r := dates.Range(query)

	reason := firstKeyword(query, []keywordRule{
		{terms: []string{"sick"}, value: "Medical reasons"},
		{terms: []string{"emergency"}, value: "Emergency"},
		{terms: []string{"family"}, value: "Family matters"},
	}, "Personal")

	return ActionBody{
		ActionType: ActionApplyLeave,
		Parameters: LeaveParameters{
			LeaveType: leaveType,
			StartDate: nldate.FormatDate(r.Start),
			EndDate:   nldate.FormatDate(r.End),
			Reason:    reason,
		},
		Verification: VerificationPendingApproval,
	}
}

// ticketHandler fills the RAISE_TICKET slots.
type ticketHandler struct{}

func (ticketHandler) Type() ActionType { return ActionRaiseTicket }

func (ticketHandler) Handle(query string, _ *nldate.Extractor) ActionBody {
	category := firstKeyword(query, []keywordRule{
		{terms: []string{"payroll"}, value: "PAYROLL"},
		{terms: []string{"benefit"}, value: "BENEFITS"},
	}, "IT")

	priority := "NORMAL"
	if containsAny(query, urgencyTerms) {
		priority = "HIGH"
	}

	description := query
	description = strings.ReplaceAll(description, "raise", "")
	description = strings.ReplaceAll(description, "ticket", "")
	description = capitalizeFirst(strings.TrimSpace(description))
	if description == "" {
		description = "User reported issue"
	}

	return ActionBody{
		ActionType: ActionRaiseTicket,
		Parameters: TicketParameters{
			Category:    category,
			Priority:    priority,
			Subject:     "User Reported Issue",
			Description: description,
		},
		Verification: VerificationTicketCreated,
	}
}

// reTopic captures the phrase after "about", up to a trailing "on"/"at"
// clause or the end of the query.
var reTopic = regexp.MustCompile(`about\s+(.+?)(?:\s+on|\s+at|$)`)

// meetingHandler fills the SCHEDULE_MEETING slots. Department matching is
// substring-based like every other keyword table, so short fragments such
// as "it" can match inside longer words; HR_BP is the default.
type meetingHandler struct{}

func (meetingHandler) Type() ActionType { return ActionScheduleMeeting }

func (meetingHandler) Handle(query string, dates *nldate.Extractor) ActionBody {
	department := firstKeyword(query, []keywordRule{
		{terms: []string{"recruit"}, value: "RECRUITMENT"},
		{terms: []string{"payroll"}, value: "PAYROLL"},
		{terms: []string{"it"}, value: "IT"},
	}, "HR_BP")

	topic := "Discussion on HR Policies"
	if department == "RECRUITMENT" {
		topic = "Discussion on Recruitment"
	}
	if strings.Contains(query, "about") {
		if m := reTopic.FindStringSubmatch(query); m != nil {
			topic = capitalizeFirst(strings.TrimSpace(m[1]))
		}
	}

	return ActionBody{
		ActionType: ActionScheduleMeeting,
		Parameters: MeetingParameters{
			Department: department,
			DateTime:   nldate.FormatDateTime(dates.At(query)),
			Topic:      topic,
		},
		Verification: VerificationSlotBooked,
	}
}

var reAmount = regexp.MustCompile(`\d+`)

// secondaryApprovalReason is the soft policy warning for large relocation
// claims. The claim stays eligible; it is flagged, not blocked.
const secondaryApprovalReason = "Warning: High amount, requires secondary approval"

// allowanceHandler fills the CLAIM_ALLOWANCE slots and runs the policy
// check.
type allowanceHandler struct{}

func (allowanceHandler) Type() ActionType { return ActionClaimAllowance }

func (allowanceHandler) Handle(query string, _ *nldate.Extractor) ActionBody {
	category := firstKeyword(query, []keywordRule{
		{terms: []string{"internet"}, value: "INTERNET"},
		{terms: []string{"education"}, value: "EDUCATION"},
	}, "RELOCATION")

	// First digit run anywhere in the query; absent or malformed amounts
	// silently fall back to 0.
	amount := 0
	if m := reAmount.FindString(query); m != "" {
		amount = atoiSafe(m)
	}

	check := &PolicyCheck{
		Eligible: true,
		Reason:   "Within policy limits",
	}
	if category == "RELOCATION" && amount > 5000 {
		check.Reason = secondaryApprovalReason
	}

	return ActionBody{
		ActionType: ActionClaimAllowance,
		Parameters: AllowanceParameters{
			Category:      category,
			Amount:        amount,
			Justification: "Reimbursement for " + strings.ToLower(category),
		},
		PolicyCheck: check,
	}
}

// escalationHandler fills the ESCALATE_TO_HUMAN slots.
type escalationHandler struct{}

func (escalationHandler) Type() ActionType { return ActionEscalate }

func (escalationHandler) Handle(query string, _ *nldate.Extractor) ActionBody {
	urgency := "NORMAL"
	if containsAny(query, []string{"urgent", "anger", "frustrated", "immediately"}) {
		urgency = "HIGH"
	}

	return ActionBody{
		ActionType: ActionEscalate,
		Parameters: EscalationParameters{
			Reason:  "COMPLEXITY",
			Summary: "User requested escalation or expressed frustration.",
			Urgency: urgency,
		},
		Verification: VerificationHumanHandoff,
	}
}

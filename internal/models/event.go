package models

import "time"

// EventKind names a business event that may be surfaced to a human.
type EventKind string

const (
	EventAppealCreated     EventKind = "appeal_created"
	EventAppealForwarded   EventKind = "appeal_forwarded"
	EventDueDateExtended   EventKind = "due_date_extended"
	EventAppealClosed      EventKind = "appeal_closed"
	EventAnswerApproved    EventKind = "answer_approved"
	EventAnswerRejected    EventKind = "answer_rejected"
	EventApprovalRequested EventKind = "approval_requested"
	EventApprovalDecided   EventKind = "approval_decided"
	EventDeadlineReminder  EventKind = "deadline_reminder"
	EventAppealOverdue     EventKind = "appeal_overdue"
)

// AppealEvent carries enough context for a notifier to render a localised message.
// District names are filled in at dispatch time.
type AppealEvent struct {
	Kind           EventKind   `json:"kind"`
	AppealID       string      `json:"appealId,omitempty"`
	AppealNumber   string      `json:"appealNumber,omitempty"`
	SubmitterID    string      `json:"submitterId"`
	ActorID        *string     `json:"actorId,omitempty"`
	DistrictID     int64       `json:"districtId"`
	FromDistrictID *int64      `json:"fromDistrictId,omitempty"`
	District       *District   `json:"district,omitempty"`
	FromDistrict   *District   `json:"fromDistrict,omitempty"`
	DueDate        *time.Time  `json:"dueDate,omitempty"`
	OldDueDate     *time.Time  `json:"oldDueDate,omitempty"`
	DaysRemaining  *int        `json:"daysRemaining,omitempty"`
	AnswerID       string      `json:"answerId,omitempty"`
	AnswerText     *string     `json:"answerText,omitempty"`
	AnswerFiles    Attachments `json:"answerFiles,omitempty"`
	RequestID      string      `json:"requestId,omitempty"`
	Approved       *bool       `json:"approved,omitempty"`
	Reason         *string     `json:"reason,omitempty"`
	OccurredAt     time.Time   `json:"occurredAt"`
}

// LifecycleResult is returned by every lifecycle operation. Events must be
// dispatched by the caller only after the operation has committed.
type LifecycleResult struct {
	Appeal  *Appeal          `json:"appeal,omitempty"`
	Answer  *AppealAnswer    `json:"answer,omitempty"`
	Request *ApprovalRequest `json:"request,omitempty"`
	Events  []AppealEvent    `json:"-"`
}

// ScanResult summarises one reminder scan.
type ScanResult struct {
	OverdueCount int              `json:"overdueCount"`
	Reminded     []ReminderNotice `json:"reminded"`
	Events       []AppealEvent    `json:"-"`
}

// ReminderNotice is one appeal selected by the reminder scan.
type ReminderNotice struct {
	AppealID      string    `json:"appealId"`
	AppealNumber  string    `json:"appealNumber"`
	DistrictID    int64     `json:"districtId"`
	DueDate       time.Time `json:"dueDate"`
	DaysRemaining int       `json:"daysRemaining"`
	Kind          EventKind `json:"kind"`
}

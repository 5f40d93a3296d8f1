package models

import "time"

// AnswerApprovalStatus is the submitter's verdict on an answer.
type AnswerApprovalStatus string

const (
	AnswerPending  AnswerApprovalStatus = "pending"
	AnswerApproved AnswerApprovalStatus = "approved"
	AnswerRejected AnswerApprovalStatus = "rejected"
)

// AppealAnswer is a moderator's resolution of an appeal.
type AppealAnswer struct {
	ID              string               `db:"id" json:"id"`
	AppealID        string               `db:"appeal_id" json:"appealId"`
	ModeratorID     string               `db:"moderator_id" json:"moderatorId"`
	Text            *string              `db:"text" json:"text,omitempty"`
	Files           Attachments          `db:"files" json:"files"`
	ApprovalStatus  AnswerApprovalStatus `db:"approval_status" json:"approvalStatus"`
	RejectionReason *string              `db:"rejection_reason" json:"rejectionReason,omitempty"`
	ApprovedAt      *time.Time           `db:"approved_at" json:"approvedAt,omitempty"`
	RejectedAt      *time.Time           `db:"rejected_at" json:"rejectedAt,omitempty"`
	CreatedAt       time.Time            `db:"created_at" json:"createdAt"`
}

package models

import "time"

// ApprovalRequestStatus tracks a request to file a concurrent appeal.
type ApprovalRequestStatus string

const (
	ApprovalRequestPending  ApprovalRequestStatus = "pending"
	ApprovalRequestApproved ApprovalRequestStatus = "approved"
	ApprovalRequestRejected ApprovalRequestStatus = "rejected"
)

// ApprovalRequest lets a submitter with an active appeal file one more.
// An approved request is deleted when the next appeal consumes it.
type ApprovalRequest struct {
	ID          string                `db:"id" json:"id"`
	SubmitterID string                `db:"submitter_id" json:"submitterId"`
	Status      ApprovalRequestStatus `db:"status" json:"status"`
	ModeratorID *string               `db:"moderator_id" json:"moderatorId,omitempty"`
	Reason      *string               `db:"reason" json:"reason,omitempty"`
	CreatedAt   time.Time             `db:"created_at" json:"createdAt"`
	ResolvedAt  *time.Time            `db:"resolved_at" json:"resolvedAt,omitempty"`
}

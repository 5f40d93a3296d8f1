package models

import "time"

// AppealAction is the kind of transition recorded in the audit trail.
type AppealAction string

const (
	AppealActionCreated   AppealAction = "created"
	AppealActionForwarded AppealAction = "forwarded"
	AppealActionExtended  AppealAction = "extended"
	AppealActionClosed    AppealAction = "closed"
	AppealActionReopened  AppealAction = "reopened"
	AppealActionOverdue   AppealAction = "overdue"
)

// AppealLog is an append-only audit row. Rows are never updated or deleted.
type AppealLog struct {
	ID             string       `db:"id" json:"id"`
	AppealID       string       `db:"appeal_id" json:"appealId"`
	Action         AppealAction `db:"action" json:"action"`
	FromDistrictID *int64       `db:"from_district_id" json:"fromDistrictId,omitempty"`
	ToDistrictID   *int64       `db:"to_district_id" json:"toDistrictId,omitempty"`
	OldDueDate     *time.Time   `db:"old_due_date" json:"oldDueDate,omitempty"`
	NewDueDate     *time.Time   `db:"new_due_date" json:"newDueDate,omitempty"`
	ModeratorID    *string      `db:"moderator_id" json:"moderatorId,omitempty"`
	Comment        *string      `db:"comment" json:"comment,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
}

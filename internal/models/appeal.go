package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AppealStatus is the lifecycle state of an appeal. Exactly one holds at a time.
type AppealStatus string

const (
	AppealStatusNew        AppealStatus = "new"
	AppealStatusInProgress AppealStatus = "in_progress"
	AppealStatusForwarded  AppealStatus = "forwarded"
	AppealStatusReopened   AppealStatus = "reopened"
	AppealStatusOverdue    AppealStatus = "overdue"
	AppealStatusClosed     AppealStatus = "closed"
)

// ActiveAppealStatuses are the statuses that count against the one-active-appeal limit.
var ActiveAppealStatuses = []AppealStatus{
	AppealStatusNew,
	AppealStatusInProgress,
	AppealStatusForwarded,
	AppealStatusReopened,
}

// IsActive reports whether the appeal still awaits a first or renewed answer within its deadline.
func (s AppealStatus) IsActive() bool {
	switch s {
	case AppealStatusNew, AppealStatusInProgress, AppealStatusForwarded, AppealStatusReopened:
		return true
	case AppealStatusOverdue, AppealStatusClosed:
		return false
	}
	return false
}

// Valid reports whether s is a known status.
func (s AppealStatus) Valid() bool {
	switch s {
	case AppealStatusNew, AppealStatusInProgress, AppealStatusForwarded,
		AppealStatusReopened, AppealStatusOverdue, AppealStatusClosed:
		return true
	}
	return false
}

// Allows reports whether an appeal in status s may undergo the action.
// in_progress is storable but no action enters it.
func (s AppealStatus) Allows(action AppealAction) bool {
	switch action {
	case AppealActionCreated:
		return false
	case AppealActionForwarded, AppealActionExtended, AppealActionOverdue:
		return s.IsActive()
	case AppealActionClosed:
		return s.IsActive() || s == AppealStatusOverdue
	case AppealActionReopened:
		return s == AppealStatusClosed
	}
	return false
}

// ParseAppealStatus validates a raw status value.
func ParseAppealStatus(raw string) (AppealStatus, error) {
	status := AppealStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("unknown appeal status %q", raw)
	}
	return status, nil
}

// AttachmentKind is the declared media kind of an external file.
type AttachmentKind string

const (
	AttachmentPhoto    AttachmentKind = "photo"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentAudio    AttachmentKind = "audio"
	AttachmentVoice    AttachmentKind = "voice"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment references a file held by an external store. Only metadata is kept.
type Attachment struct {
	ExternalRef string         `json:"externalRef" validate:"required"`
	Kind        AttachmentKind `json:"kind" validate:"required,oneof=photo video audio voice document"`
	Name        *string        `json:"name,omitempty"`
	Size        *int64         `json:"size,omitempty" validate:"omitempty,gte=0"`
	MimeType    *string        `json:"mimeType,omitempty"`
}

// Attachments is stored as a JSONB array.
type Attachments []Attachment

// Value implements driver.Valuer.
func (a Attachments) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Attachments) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan attachments: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*a = nil
		return nil
	}
	var out []Attachment
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan attachments: %w", err)
	}
	*a = out
	return nil
}

// Appeal is a case filed by a submitter and owned by one district.
type Appeal struct {
	ID                  string       `db:"id" json:"id"`
	AppealNumber        string       `db:"appeal_number" json:"appealNumber"`
	SubmitterID         string       `db:"submitter_id" json:"submitterId"`
	DistrictID          int64        `db:"district_id" json:"districtId"`
	Text                *string      `db:"text" json:"text,omitempty"`
	Files               Attachments  `db:"files" json:"files"`
	Status              AppealStatus `db:"status" json:"status"`
	DueDate             time.Time    `db:"due_date" json:"dueDate"`
	ClosedByModeratorID *string      `db:"closed_by_moderator_id" json:"closedByModeratorId,omitempty"`
	ClosedAt            *time.Time   `db:"closed_at" json:"closedAt,omitempty"`
	RejectionCount      int          `db:"rejection_count" json:"rejectionCount"`
	CreatedAt           time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time    `db:"updated_at" json:"updatedAt"`
}

// AppealFilter constrains listing queries.
type AppealFilter struct {
	DistrictID  int64
	SubmitterID string
	Statuses    []AppealStatus
	Limit       int
	Offset      int
}

// AppealDetail bundles an appeal with its latest answer, if any.
type AppealDetail struct {
	Appeal *Appeal       `json:"appeal"`
	Answer *AppealAnswer `json:"answer,omitempty"`
}

package dto

import "github.com/noah-isme/appeal-desk-api/internal/models"

// CreateAppealRequest is submitted by the conversational layer once input collection ends.
// The submitter is identified either by id or by chat channel id.
type CreateAppealRequest struct {
	SubmitterID  string              `json:"submitterId" validate:"required_without=ChannelID"`
	ChannelID    int64               `json:"channelId" validate:"required_without=SubmitterID"`
	Text         *string             `json:"text" validate:"omitempty,max=4000"`
	Files        []models.Attachment `json:"files" validate:"omitempty,dive"`
	AppealNumber *string             `json:"appealNumber" validate:"omitempty,min=1,max=50,alphanum"`
}

// ForwardAppealRequest reassigns an appeal to another district.
type ForwardAppealRequest struct {
	DistrictID  int64   `json:"districtId" validate:"required,gt=0"`
	ModeratorID string  `json:"moderatorId" validate:"required"`
	Comment     *string `json:"comment" validate:"omitempty,max=1000"`
}

// ExtendAppealRequest moves the due date. DueDate accepts YYYY-MM-DD or DD.MM.YYYY.
type ExtendAppealRequest struct {
	DueDate     string  `json:"dueDate" validate:"required"`
	ModeratorID string  `json:"moderatorId" validate:"required"`
	Comment     *string `json:"comment" validate:"omitempty,max=1000"`
}

// CloseAppealRequest carries the moderator's answer.
type CloseAppealRequest struct {
	ModeratorID string              `json:"moderatorId" validate:"required"`
	Text        *string             `json:"text" validate:"omitempty,max=4000"`
	Files       []models.Attachment `json:"files" validate:"omitempty,dive"`
}

// AnswerDecisionRequest is the submitter's verdict on an answer. Reason is required for rejections.
type AnswerDecisionRequest struct {
	SubmitterID string  `json:"submitterId" validate:"required"`
	Reason      *string `json:"reason" validate:"omitempty,max=1000"`
}

// RequestApprovalRequest asks permission to file a concurrent appeal.
type RequestApprovalRequest struct {
	SubmitterID string `json:"submitterId" validate:"required_without=ChannelID"`
	ChannelID   int64  `json:"channelId" validate:"required_without=SubmitterID"`
}

// ResolveApprovalRequest records a moderator's decision on an approval request.
type ResolveApprovalRequest struct {
	ModeratorID string  `json:"moderatorId" validate:"required"`
	Reason      *string `json:"reason" validate:"omitempty,max=1000"`
}

// AppealQuery mirrors supported listing filters.
type AppealQuery struct {
	DistrictID  int64
	SubmitterID string
	Statuses    []models.AppealStatus
	Limit       int
	Offset      int
}

package models

// SubmitterType classifies a user for routing and privileges.
type SubmitterType string

const (
	SubmitterIndividual SubmitterType = "individual"
	SubmitterBusiness   SubmitterType = "business"
	SubmitterGovernment SubmitterType = "government"
	SubmitterModerator  SubmitterType = "moderator"
	SubmitterAdmin      SubmitterType = "admin"
)

// IsReviewer reports whether the type belongs to a district's reviewer roster.
func (t SubmitterType) IsReviewer() bool {
	return t == SubmitterModerator || t == SubmitterAdmin
}

// Submitter is a read-only view over a registered user.
type Submitter struct {
	ID                    string        `db:"id" json:"id"`
	ChannelID             int64         `db:"channel_id" json:"channelId"`
	Type                  SubmitterType `db:"type" json:"type"`
	FullName              string        `db:"full_name" json:"fullName"`
	Phone                 string        `db:"phone" json:"phone"`
	Language              string        `db:"language" json:"language"`
	DistrictID            *int64        `db:"district_id" json:"districtId,omitempty"`
	BankAccountDistrictID *int64        `db:"bank_account_district_id" json:"bankAccountDistrictId,omitempty"`
}

// District is an organisational unit owning appeals and their reviewers.
type District struct {
	ID        int64  `db:"id" json:"id"`
	NameUz    string `db:"name_uz" json:"nameUz"`
	NameRu    string `db:"name_ru" json:"nameRu"`
	IsCentral bool   `db:"is_central" json:"isCentral"`
}

// Name returns the district name in the requested locale, defaulting to Uzbek.
func (d *District) Name(language string) string {
	if d == nil {
		return ""
	}
	if language == "ru" {
		return d.NameRu
	}
	return d.NameUz
}

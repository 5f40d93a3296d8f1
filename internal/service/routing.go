package service

import (
	"fmt"

	"github.com/noah-isme/appeal-desk-api/internal/models"
	appErrors "github.com/noah-isme/appeal-desk-api/pkg/errors"
)

// RoutingResolver decides which district owns a new appeal.
type RoutingResolver struct{}

// ResolveDistrict returns the owning district for appeals filed by the submitter.
// Business submitters route to their bank-account district, everyone else to their home district.
func (RoutingResolver) ResolveDistrict(submitter *models.Submitter) (int64, error) {
	if submitter == nil {
		return 0, appErrors.Clone(appErrors.ErrSubmitterNotFound, "")
	}

	var district *int64
	attribute := "home district"
	switch submitter.Type {
	case models.SubmitterBusiness:
		district = submitter.BankAccountDistrictID
		attribute = "bank account district"
	case models.SubmitterIndividual, models.SubmitterGovernment, models.SubmitterModerator, models.SubmitterAdmin:
		district = submitter.DistrictID
	default:
		return 0, appErrors.Clone(appErrors.ErrMissingRoutingAttribute, "submitter has no registered type")
	}

	if district == nil || *district <= 0 {
		return 0, appErrors.Clone(appErrors.ErrMissingRoutingAttribute, fmt.Sprintf("submitter has no %s", attribute))
	}
	return *district, nil
}

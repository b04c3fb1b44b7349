package service

import (
	"errors"

	"pos-service/internal/models"
)

// Features gated by subscription plan
const (
	FeatureDigitalMenu = "digital_menu"
	FeaturePOS         = "pos"
	FeaturePDFMenu     = "pdf_menu"
)

// ErrFeatureNotAllowed is returned when a tenant's plan does not
// include the requested feature.
var ErrFeatureNotAllowed = errors.New("plan does not include this feature")

// tierAccess maps each feature to the plans that may reach it.
var tierAccess = map[string][]string{
	FeatureDigitalMenu: {models.PlanFull, models.PlanMenu},
	FeaturePOS:         {models.PlanFull},
	FeaturePDFMenu:     {models.PlanFull, models.PlanMenu, models.PlanBasic},
}

// HasAccess reports whether a plan includes a feature.
func HasAccess(plan, feature string) bool {
	for _, allowed := range tierAccess[feature] {
		if allowed == plan {
			return true
		}
	}
	return false
}

// PlanFeatures returns the features available to a plan.
func PlanFeatures(plan string) []string {
	var features []string
	for _, feature := range []string{FeatureDigitalMenu, FeaturePOS, FeaturePDFMenu} {
		if HasAccess(plan, feature) {
			features = append(features, feature)
		}
	}
	return features
}

func requireFeature(profile *models.Profile, feature string) error {
	if !HasAccess(profile.Plan, feature) {
		return ErrFeatureNotAllowed
	}
	return nil
}

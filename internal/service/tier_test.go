package service

import (
	"testing"

	"pos-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestHasAccess(t *testing.T) {
	tests := []struct {
		plan    string
		feature string
		want    bool
	}{
		{models.PlanFull, FeatureDigitalMenu, true},
		{models.PlanFull, FeaturePOS, true},
		{models.PlanFull, FeaturePDFMenu, true},
		{models.PlanMenu, FeatureDigitalMenu, true},
		{models.PlanMenu, FeaturePOS, false},
		{models.PlanMenu, FeaturePDFMenu, true},
		{models.PlanBasic, FeatureDigitalMenu, false},
		{models.PlanBasic, FeaturePOS, false},
		{models.PlanBasic, FeaturePDFMenu, true},
		{"unknown", FeaturePOS, false},
		{models.PlanFull, "unknown", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HasAccess(tt.plan, tt.feature),
			"plan=%s feature=%s", tt.plan, tt.feature)
	}
}

func TestPlanFeatures(t *testing.T) {
	assert.Equal(t, []string{FeatureDigitalMenu, FeaturePOS, FeaturePDFMenu}, PlanFeatures(models.PlanFull))
	assert.Equal(t, []string{FeatureDigitalMenu, FeaturePDFMenu}, PlanFeatures(models.PlanMenu))
	assert.Equal(t, []string{FeaturePDFMenu}, PlanFeatures(models.PlanBasic))
	assert.Empty(t, PlanFeatures("unknown"))
}

func TestRequireFeature(t *testing.T) {
	full := &models.Profile{Plan: models.PlanFull}
	basic := &models.Profile{Plan: models.PlanBasic}

	assert.NoError(t, requireFeature(full, FeaturePOS))
	assert.ErrorIs(t, requireFeature(basic, FeaturePOS), ErrFeatureNotAllowed)
}

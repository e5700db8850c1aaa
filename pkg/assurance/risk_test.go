package assurance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRiskQuantification_AllCriticalIsCritical(t *testing.T) {
	rq := computeRiskQuantification(map[string]float64{"CRITICAL": 1.0})
	assert.Equal(t, "critical", rq.FAIRCategory)
}

func TestComputeRiskQuantification_EmptyIsInsufficientData(t *testing.T) {
	rq := computeRiskQuantification(nil)
	assert.Equal(t, "insufficient-data", rq.FAIRCategory)
}

func TestComputeRiskQuantification_MixedSeverityIsBetweenBounds(t *testing.T) {
	rq := computeRiskQuantification(map[string]float64{"LOW": 0.5, "HIGH": 0.5})
	assert.GreaterOrEqual(t, rq.Mean, rq.Min)
	assert.LessOrEqual(t, rq.Mean, rq.Max)
}

func TestScoreMethodology_HighestLevelWins(t *testing.T) {
	level, keyword := scoreMethodology("control is documented and demonstrated", "")
	assert.Equal(t, LevelDemonstrated, level)
	assert.Equal(t, "demonstrated", keyword)
}

func TestClassifyFreshness_Buckets(t *testing.T) {
	assert.Equal(t, FreshnessFresh, classifyFreshness(5))
	assert.Equal(t, FreshnessCurrent, classifyFreshness(60))
	assert.Equal(t, FreshnessStale, classifyFreshness(120))
	assert.Equal(t, FreshnessExpired, classifyFreshness(200))
}

func TestIsBoilerplate(t *testing.T) {
	assert.True(t, isBoilerplate("Control is operating effectively with no exceptions noted."))
	assert.False(t, isBoilerplate("MFA is enforced for all administrative console access via Okta."))
}

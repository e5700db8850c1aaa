package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corsair-io/corsair/pkg/assurance"
	"github.com/corsair-io/corsair/pkg/diff"
)

func TestCompareDetectsRegression(t *testing.T) {
	previous := diff.Snapshot{
		OverallScore: 80,
		Scope:        "soc2",
		Controls: []assurance.ControlClassification{
			{ControlID: "CC1.1", Level: assurance.LevelDemonstrated},
			{ControlID: "CC1.2", Level: assurance.LevelObserved},
		},
	}
	current := diff.Snapshot{
		OverallScore: 60,
		Scope:        "soc2",
		Controls: []assurance.ControlClassification{
			{ControlID: "CC1.1", Level: assurance.LevelConfigured},
			{ControlID: "CC1.2", Level: assurance.LevelObserved},
		},
	}

	result := diff.Compare(previous, current)
	assert.Equal(t, -20, result.ScoreDelta)
	assert.True(t, result.HasRegression)
	assert.Equal(t, []string{"CC1.1"}, result.NewFailures)
	assert.Empty(t, result.ResolvedFailures)
	assert.False(t, result.ChangedScope)
}

func TestCompareDetectsResolvedFailure(t *testing.T) {
	previous := diff.Snapshot{
		OverallScore: 50,
		Controls: []assurance.ControlClassification{
			{ControlID: "CC2.1", Level: assurance.LevelDocumented},
		},
	}
	current := diff.Snapshot{
		OverallScore: 90,
		Controls: []assurance.ControlClassification{
			{ControlID: "CC2.1", Level: assurance.LevelAttested},
		},
	}

	result := diff.Compare(previous, current)
	assert.False(t, result.HasRegression)
	assert.Equal(t, []string{"CC2.1"}, result.ResolvedFailures)
	assert.Empty(t, result.NewFailures)
}

func TestCompareDetectsChangedScope(t *testing.T) {
	previous := diff.Snapshot{OverallScore: 70, Scope: "soc2"}
	current := diff.Snapshot{OverallScore: 70, Scope: "pci"}
	result := diff.Compare(previous, current)
	assert.True(t, result.ChangedScope)
	assert.Equal(t, 0, result.ScoreDelta)
}

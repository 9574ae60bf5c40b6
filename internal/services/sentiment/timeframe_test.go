package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SectorPulse/internal/domain/models"
)

func TestTimeframeMultipliers_Validate(t *testing.T) {
	require.NoError(t, DefaultTimeframeMultipliers.Validate())
	require.NoError(t, TimeframeMultipliers{Min30: 0.1, Day3: 1.5, Week1: 2.5}.Validate())
	require.NoError(t, TimeframeMultipliers{Min30: 0.8, Day3: 3.5, Week1: 6.0}.Validate())

	err := TimeframeMultipliers{Min30: 0.9, Day3: 2.5, Week1: 7}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "30min")
	assert.Contains(t, err.Error(), "1week")
}

func TestTimeframeMultipliers_Approximate(t *testing.T) {
	a := DefaultTimeframeMultipliers.Approximate(2.0)
	assert.True(t, a.Approximated)
	assert.Equal(t, 0.6, a.Estimates[models.TF30Min])
	assert.Equal(t, 2.0, a.Estimates[models.TF1Day])
	assert.Equal(t, 5.0, a.Estimates[models.TF3Day])
	assert.Equal(t, 8.0, a.Estimates[models.TF1Week])
}

func TestTimeframeMultipliers_ApproximateScores(t *testing.T) {
	s := DefaultTimeframeMultipliers.ApproximateScores(3.0)
	assert.Equal(t, 0.3, s[models.TF1Day])
	assert.Equal(t, 0.09, s[models.TF30Min])
	assert.Equal(t, 0.75, s[models.TF3Day])
	assert.Equal(t, 0.819, s[models.TF1Week]) // 12% lands in the compressed branch
}

package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy(t *testing.T) {
	t.Parallel()

	policy := Policy{
		HourLimits:        [12]int{136, 152, 160, 168, 144, 160, 184, 184, 168, 176, 160, 176},
		PremadeCategories: []string{"Vacation", "Training", "Sick leave", "Training"},
	}

	assert.Equal(t, 136, policy.HourLimit(1))
	assert.Equal(t, 176, policy.HourLimit(12))
	assert.Zero(t, policy.HourLimit(0))
	assert.Zero(t, policy.HourLimit(13))

	entries := policy.PremadeEntries([]Line{{Company: "Vacation", UtilHours: 8}, {Company: "Company1"}})
	assert.Equal(t, []string{"Sick leave", "Training"}, entries)
	assert.Empty(t, Policy{}.PremadeEntries(nil))
}

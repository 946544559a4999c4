package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/dairysense/internal/domain/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		milk    float64
		average float64
		status  models.StatusCode
		reason  string
	}{
		{name: "no baseline no milk", milk: 0, average: 0, status: models.StatusAttention, reason: ReasonNoYield},
		{name: "first recorded day", milk: 5, average: 0, status: models.StatusNormal},
		{name: "baseline but no milk", milk: 0, average: 10, status: models.StatusAttention, reason: ReasonNoYield},
		{name: "below 80 percent", milk: 7.9, average: 10, status: models.StatusAttention, reason: ReasonYieldBelow},
		{name: "exactly 80 percent is not below", milk: 8, average: 10, status: models.StatusSlightDrop, reason: ReasonMinorDrop},
		{name: "below 90 percent", milk: 8.5, average: 10, status: models.StatusSlightDrop, reason: ReasonMinorDrop},
		{name: "exactly 90 percent is normal", milk: 9, average: 10, status: models.StatusNormal},
		{name: "above 90 percent", milk: 9.5, average: 10, status: models.StatusNormal},
		{name: "above baseline", milk: 22, average: 139.0 / 7, status: models.StatusNormal},
		{name: "15 against 20", milk: 15, average: 20, status: models.StatusAttention, reason: ReasonYieldBelow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reason := Classify(tt.milk, tt.average)
			assert.Equal(t, tt.status, status)
			if tt.reason == "" {
				assert.Nil(t, reason)
				return
			}
			if assert.NotNil(t, reason) {
				assert.Equal(t, tt.reason, *reason)
			}
		})
	}
}

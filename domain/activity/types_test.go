package activity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvent_Duration(t *testing.T) {
	secs := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		secs  *float64
		valid bool
		want  time.Duration
	}{
		{"absent", nil, true, 0},
		{"zero", secs(0), true, 0},
		{"ninety seconds", secs(90), true, 90 * time.Second},
		{"one day", secs(86400), true, 24 * time.Hour},
		{"negative", secs(-1), false, 0},
		{"three days", secs(259200), false, 0},
		{"overflows int64", secs(1e19), false, 0},
		{"infinite", secs(math.Inf(1)), false, 0},
		{"nan", secs(math.NaN()), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Event{Timestamp: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), ActionKind: ActionEdit, DurationSeconds: tt.secs}
			assert.Equal(t, tt.valid, ev.DurationValid())
			assert.Equal(t, tt.want, ev.Duration())
			assert.Equal(t, ev.Timestamp.Add(tt.want), ev.End())
		})
	}
}

package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"duration string", `"168h"`, 168 * time.Hour, false},
		{"minutes string", `"30m"`, 30 * time.Minute, false},
		{"integer nanoseconds", `60000000000`, time.Minute, false},
		{"invalid string", `"yesterday"`, 0, true},
		{"wrong type", `{"h":1}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_MarshalRoundTrip(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(Duration{90 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, `"1h30m0s"`, string(out))

	var d Duration
	require.NoError(t, json.Unmarshal(out, &d))
	assert.Equal(t, 90*time.Minute, d.Duration)
}

package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{},
		},
		{
			name:         "flag followed by another flag keeps only the flag",
			args:         []string{"-c", "-notvalue"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c"},
		},
		{
			name:         "multiple allowed flags preserve order",
			args:         []string{"-l", "ledger.db", "-s", "hush", "-x", "1"},
			allowedFlags: []string{"-l", "-s"},
			want:         []string{"-l", "ledger.db", "-s", "hush"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestRemainingArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		knownFlags []string
		want       []string
	}{
		{
			name:       "command after flags",
			args:       []string{"-l", "ledger.db", "approve", "u-1", "pioneer"},
			knownFlags: []string{"-l", "-s"},
			want:       []string{"approve", "u-1", "pioneer"},
		},
		{
			name:       "equals form consumed",
			args:       []string{"--config=conf.json", "users"},
			knownFlags: []string{"--config"},
			want:       []string{"users"},
		},
		{
			name:       "unknown flags pass through",
			args:       []string{"-z", "history", "users"},
			knownFlags: []string{"-l"},
			want:       []string{"-z", "history", "users"},
		},
		{
			name:       "no positional arguments",
			args:       []string{"-l", "ledger.db"},
			knownFlags: []string{"-l"},
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemainingArgs(tt.args, tt.knownFlags))
		})
	}
}

func TestFilterAndRemainingArePartitions(t *testing.T) {
	args := []string{"-l", "ledger.db", "billing", "u-1", "2026-05-01", "2026-05-31"}
	known := []string{"-l", "-d"}

	filtered := FilterArgs(args, known)
	rest := RemainingArgs(args, known)

	assert.Len(t, filtered, 2)
	assert.Len(t, rest, 4)
	assert.Equal(t, len(args), len(filtered)+len(rest))
}

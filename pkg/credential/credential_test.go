package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  time.Time
		isNil bool
		err   bool
	}{
		{name: "empty", in: "  ", isNil: true},
		{name: "rfc3339", in: "2030-05-01T10:00:00Z", want: time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "offset normalized to utc", in: "2030-05-01T12:00:00+02:00", want: time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "nanos truncated", in: "2030-05-01T10:00:00.123456789Z", want: time.Date(2030, 5, 1, 10, 0, 0, 123456000, time.UTC)},
		{name: "date only", in: "2030-05-01", want: time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)},
		{name: "datetime-local", in: "2030-05-01T08:30", want: time.Date(2030, 5, 1, 8, 30, 0, 0, time.UTC)},
		{name: "garbage", in: "next tuesday", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.isNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestExpiredAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	assert.False(t, Credential{}.ExpiredAt(now), "no expiry never expires")
	assert.True(t, Credential{ExpiryDate: &past}.ExpiredAt(now))
	assert.False(t, Credential{ExpiryDate: &future}.ExpiredAt(now))
	assert.False(t, Credential{ExpiryDate: &now}.ExpiredAt(now), "expiry equal to now is not strictly before")
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "", FormatTime(nil))
	ts := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2030-05-01T10:00:00Z", FormatTime(&ts))
}

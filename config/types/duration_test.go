package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshal(t *testing.T) {
	tcs := []struct {
		input    string
		expected time.Duration
		err      bool
	}{
		{input: "10s", expected: 10 * time.Second},
		{input: "300ms", expected: 300 * time.Millisecond},
		{input: "1h30m", expected: 90 * time.Minute},
		{input: "ten seconds", err: true},
	}
	for _, tc := range tcs {
		var d Duration
		err := d.UnmarshalText([]byte(tc.input))
		if tc.err {
			require.Error(t, err, tc.input)
			continue
		}
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.expected, d.Duration)
	}
}

func TestDurationMarshal(t *testing.T) {
	b, err := NewDuration(2 * time.Second).MarshalText()
	require.NoError(t, err)
	require.Equal(t, "2s", string(b))
}

func TestDurationJSONSchema(t *testing.T) {
	s := Duration{}.JSONSchema()
	require.Equal(t, "string", s.Type)
	require.Equal(t, "Duration", s.Title)
}

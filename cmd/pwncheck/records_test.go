package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecords(t *testing.T) {
	input := strings.Join([]string{
		"# exported vault",
		"email\thunter2",
		"bank\tpassword\tpwned",
		"",
		"old\tabc\tpwned-ignore,work\t2024-01-02",
		"tab\t  spaced secret \t\t2030-05-06T07:08:09Z\r",
	}, "\n")

	records, err := parseRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "email", records[0].ID)
	assert.Equal(t, []byte("hunter2"), records[0].Secret)
	assert.False(t, records[0].PreviouslyBreached)

	assert.True(t, records[1].PreviouslyBreached)
	assert.False(t, records[1].Ignored)

	assert.True(t, records[2].Ignored)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), records[2].ExpiresAt)

	assert.Equal(t, []byte("  spaced secret "), records[3].Secret)
	assert.Equal(t, time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC), records[3].ExpiresAt)
}

func TestParseRecordsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing secret", "only-id\n", "line 1"},
		{"empty id", "\tsecret\n", "empty id"},
		{"duplicate id", "a\tx\na\ty\n", "duplicate id"},
		{"bad expiry", "a\tx\t\tnext week\n", "expires"},
		{"too many fields", "a\tx\t\t\textra\n", "too many fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRecords(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

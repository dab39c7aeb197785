package parse

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseJournalName(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  JournalName
		expectErr bool
	}{
		{
			name:     "Current format",
			raw:      "Journal.2024-05-01T101010.01.log",
			expected: JournalName{Started: time.Date(2024, 5, 1, 10, 10, 10, 0, time.UTC), Part: 1},
		},
		{
			name:     "Legacy format",
			raw:      "Journal.221231235959.03.log",
			expected: JournalName{Started: time.Date(2022, 12, 31, 23, 59, 59, 0, time.UTC), Part: 3},
		},
		{
			name:     "Full path",
			raw:      "/home/cmdr/Saved Games/Journal.2025-01-02T030405.02.log",
			expected: JournalName{Started: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), Part: 2},
		},
		{
			name:      "Cargo file",
			raw:       "Cargo.json",
			expectErr: true,
		},
		{
			name:      "Impossible date",
			raw:       "Journal.2024-13-01T101010.01.log",
			expectErr: true,
		},
		{
			name:      "Missing part",
			raw:       "Journal.2024-05-01T101010.log",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseJournalName(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, parsed)
			}
		})
	}
}

func TestJournalLess(t *testing.T) {
	files := []string{
		"Journal.custom.log",
		"Journal.2024-05-01T101010.02.log",
		"Journal.221231235959.01.log",
		"Journal.2024-05-01T101010.01.log",
		"Journal.2023-01-01T000000.01.log",
	}

	sort.SliceStable(files, func(i, j int) bool { return JournalLess(files[i], files[j]) })

	assert.Equal(t, []string{
		"Journal.221231235959.01.log",
		"Journal.2023-01-01T000000.01.log",
		"Journal.2024-05-01T101010.01.log",
		"Journal.2024-05-01T101010.02.log",
		"Journal.custom.log",
	}, files)
}

package parse

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

var (
	// Journal.2024-05-01T101010.01.log (game 4.0 and later)
	isoNameRe = regexp.MustCompile(`^Journal\.(\d{4}-\d{2}-\d{2}T\d{6})\.(\d+)\.log$`)
	// Journal.240501101010.01.log (legacy)
	legacyNameRe = regexp.MustCompile(`^Journal\.(\d{12})\.(\d+)\.log$`)
)

const (
	isoStampLayout    = "2006-01-02T150405"
	legacyStampLayout = "060102150405"
)

// JournalName holds the session start time and part number encoded in a journal file name.
type JournalName struct {
	Started time.Time
	Part    int
}

// ParseJournalName extracts the session stamp and part number from a journal file name.
// Only the base name is inspected.
func ParseJournalName(name string) (JournalName, error) {
	base := filepath.Base(name)

	layout := isoStampLayout
	m := isoNameRe.FindStringSubmatch(base)
	if m == nil {
		layout = legacyStampLayout
		m = legacyNameRe.FindStringSubmatch(base)
	}
	if m == nil {
		return JournalName{}, fmt.Errorf("not a journal file name: %q", base)
	}

	started, err := time.Parse(layout, m[1])
	if err != nil {
		return JournalName{}, fmt.Errorf("bad journal stamp in %q: %w", base, err)
	}
	part, err := strconv.Atoi(m[2])
	if err != nil {
		return JournalName{}, fmt.Errorf("bad journal part in %q: %w", base, err)
	}
	return JournalName{Started: started, Part: part}, nil
}

// JournalLess orders journal paths chronologically. Names that do not parse sort
// after every parsed name, lexicographically among themselves.
func JournalLess(a, b string) bool {
	na, errA := ParseJournalName(a)
	nb, errB := ParseJournalName(b)
	switch {
	case errA != nil && errB != nil:
		return filepath.Base(a) < filepath.Base(b)
	case errA != nil:
		return false
	case errB != nil:
		return true
	}
	if !na.Started.Equal(nb.Started) {
		return na.Started.Before(nb.Started)
	}
	if na.Part != nb.Part {
		return na.Part < nb.Part
	}
	return filepath.Base(a) < filepath.Base(b)
}

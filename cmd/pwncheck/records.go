package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	goBreach "github.com/MrEthical07/goBreach"
)

const (
	tagPwned       = "pwned"
	tagPwnedIgnore = "pwned-ignore"
)

// parseRecords reads tab-separated records:
//
//	id<TAB>secret[<TAB>tags[<TAB>expires]]
//
// tags is a comma-separated list; "pwned" marks a record found in an earlier
// run and "pwned-ignore" excludes it. expires is RFC 3339 or a plain date.
// Blank lines and lines starting with # are skipped.
func parseRecords(r io.Reader) ([]goBreach.Record, error) {
	var records []goBreach.Record
	seen := map[string]int{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected id<TAB>secret", lineNo)
		}
		if len(fields) > 4 {
			return nil, fmt.Errorf("line %d: too many fields", lineNo)
		}

		rec := goBreach.Record{
			ID:     strings.TrimSpace(fields[0]),
			Secret: []byte(fields[1]),
		}
		if rec.ID == "" {
			return nil, fmt.Errorf("line %d: empty id", lineNo)
		}
		if prev, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("line %d: duplicate id %q (first on line %d)", lineNo, rec.ID, prev)
		}
		seen[rec.ID] = lineNo

		if len(fields) > 2 {
			for _, tag := range strings.Split(fields[2], ",") {
				switch strings.ToLower(strings.TrimSpace(tag)) {
				case tagPwned:
					rec.PreviouslyBreached = true
				case tagPwnedIgnore:
					rec.Ignored = true
				}
			}
		}
		if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
			t, err := parseExpiry(strings.TrimSpace(fields[3]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			rec.ExpiresAt = t
		}

		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func parseExpiry(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("expires %q: want RFC 3339 or YYYY-MM-DD", s)
}

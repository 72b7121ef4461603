package hibp

import (
	"strings"
	"testing"
)

// FuzzParseRange feeds arbitrary range bodies through the parser.
// It must never panic and a padded lookup must never report a count-0 breach.
func FuzzParseRange(f *testing.F) {
	suffix := HashSecret([]byte("password")).Split().Suffix

	f.Add(suffix+":3861493\r\n", true)
	f.Add(suffix+":0\r\n", true)
	f.Add(suffix+":0\r\n", false)
	f.Add(suffix+":abc\n", false)
	f.Add("", true)
	f.Add("no separator here\n:::\n", false)
	f.Add("00000000000000000000000000000000000:1\r\n"+suffix+":-4\r\n", true)
	f.Add(strings.Repeat("Z", 5000)+"\n"+suffix+":7\n", false)

	f.Fuzz(func(t *testing.T, body string, padding bool) {
		got, err := ParseRange(strings.NewReader(body), suffix, padding)
		if err != nil {
			t.Fatalf("in-memory body must always parse: %v", err)
		}

		if got.Count < 0 {
			t.Fatalf("negative count %d", got.Count)
		}
		if !got.Breached && got.Count != 0 {
			t.Fatalf("clean verdict with count %d", got.Count)
		}
		if padding && got.Breached && got.Count == 0 {
			t.Fatal("padded lookup reported breached with count 0")
		}
		if got.PaddingDiscarded && (got.Breached || !padding) {
			t.Fatalf("inconsistent padding discard: %+v padding=%v", got, padding)
		}
		if got.Rows < 0 || got.Anomalies < 0 {
			t.Fatalf("negative diagnostics: %+v", got)
		}

		again, err := ParseRange(strings.NewReader(body), suffix, padding)
		if err != nil || again != got {
			t.Fatalf("parse not deterministic: %+v vs %+v (%v)", got, again, err)
		}
	})
}

package hibp

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Verdict is the outcome of a breach lookup.
//
// Breached with Count 0 means "breached, count unknown". It only occurs when
// padding was not requested and the matched row carried no usable count.
// With padding requested a count-0 row is a decoy and yields the zero Verdict.
type Verdict struct {
	Breached bool
	Count    int
}

// CountKnown reports whether Count is meaningful for a breached verdict.
func (v Verdict) CountKnown() bool {
	return !v.Breached || v.Count > 0
}

// Lookup is a [Verdict] plus diagnostics about the range response it came from.
type Lookup struct {
	Verdict

	Prefix string
	// Rows is the number of SUFFIX:COUNT rows that parsed.
	Rows int
	// Anomalies counts rows without a separator and rows with an unusable count.
	Anomalies int
	// PaddingDiscarded is set when the matched row was a padding decoy.
	PaddingDiscarded bool
}

// maxRowBytes bounds one response row. Real rows are under 50 bytes.
const maxRowBytes = 4 << 10

// ParseRange scans a range response body for suffix and resolves the verdict.
//
// Matching is byte-exact on the SUFFIX field; the first matching row wins.
// Malformed rows, including rows longer than a few KiB, are counted as
// anomalies and skipped. The only error returned is a failure reading body.
func ParseRange(body io.Reader, suffix string, padding bool) (Lookup, error) {
	var (
		out     Lookup
		matched bool
		count   int
	)

	reader := bufio.NewReaderSize(body, maxRowBytes)
	for {
		raw, err := reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			out.Anomalies++
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = reader.ReadSlice('\n')
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return Lookup{}, err
			}
			continue
		}
		if err != nil && err != io.EOF {
			return Lookup{}, err
		}

		if line := strings.TrimSpace(string(raw)); line != "" {
			rowSuffix, rowCount, ok := strings.Cut(line, ":")
			switch {
			case !ok:
				out.Anomalies++
			case matched || rowSuffix != suffix:
				out.Rows++
			default:
				out.Rows++
				matched = true

				n, convErr := strconv.Atoi(strings.TrimSpace(rowCount))
				if convErr != nil || n < 0 {
					out.Anomalies++
					n = 0
				}
				count = n
			}
		}

		if err == io.EOF {
			break
		}
	}

	out.Verdict = resolve(matched, count, padding)
	out.PaddingDiscarded = matched && count == 0 && padding
	return out, nil
}

func resolve(matched bool, count int, padding bool) Verdict {
	switch {
	case !matched:
		return Verdict{}
	case count > 0:
		return Verdict{Breached: true, Count: count}
	case padding:
		// Padding rows always carry a count of 0 and are dropped.
		return Verdict{}
	default:
		return Verdict{Breached: true}
	}
}

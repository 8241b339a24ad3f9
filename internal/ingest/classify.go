package ingest

import (
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"

	"clusterlog-go/internal/types"
)

const (
	headerOpen      = '('
	headerSeparator = " s, "
	clusterOpen     = '['
	clusterClose    = ']'
	fieldSeparator  = ", "
)

// Header holds the fields of a frame header line such as
// "Frame 1 (1335967757.2905033 s, 0.1 s)".
type Header struct {
	CaptureTime float64
	RunningTime float64
}

// Cluster holds the fields of a cluster line such as "[19, 0, 55]".
type Cluster[T constraints.Integer] struct {
	X     T
	Y     T
	Count T
}

func (c Cluster[T]) Pixel() types.Pixel[T] {
	return types.NewPixel(c.X, c.Y, c.Count)
}

// ParseHeader reports whether line is a header line and extracts its times.
// Only the opening parenthesis is required; number tokens are converted
// leniently, so text that is not a number reads as 0.
func ParseHeader(line string) (Header, bool) {
	first, second, _, ok := headerTokens(line)
	if !ok {
		return Header{}, false
	}
	return Header{
		CaptureTime: atof(first),
		RunningTime: atof(second),
	}, true
}

// ParseHeaderStrict is ParseHeader with both number tokens and the " s, "
// separator required to be well formed.
func ParseHeaderStrict(line string) (Header, bool) {
	first, second, sepOK, ok := headerTokens(line)
	if !ok || !sepOK {
		return Header{}, false
	}
	capture, err := strconv.ParseFloat(first, 64)
	if err != nil {
		return Header{}, false
	}
	running, err := strconv.ParseFloat(second, 64)
	if err != nil {
		return Header{}, false
	}
	return Header{CaptureTime: capture, RunningTime: running}, true
}

// ParseCluster reports whether line is a cluster line and extracts x, y and
// count. Only the opening bracket is required; fields that are missing or
// not numbers read as 0, and values are converted to T without range checks.
func ParseCluster[T constraints.Integer](line string) (Cluster[T], bool) {
	fields, _, ok := clusterTokens(line)
	if !ok {
		return Cluster[T]{}, false
	}
	return Cluster[T]{
		X:     T(atoi(fields[0])),
		Y:     T(atoi(fields[1])),
		Count: T(atoi(fields[2])),
	}, true
}

// ParseClusterStrict is ParseCluster with all three fields required to be
// integers that fit T, separated by ", " and closed by ']'.
func ParseClusterStrict[T constraints.Integer](line string) (Cluster[T], bool) {
	fields, wellFormed, ok := clusterTokens(line)
	if !ok || !wellFormed {
		return Cluster[T]{}, false
	}
	var values [3]T
	for i, field := range fields {
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil || int64(T(v)) != v || (v < 0) != (T(v) < 0) {
			return Cluster[T]{}, false
		}
		values[i] = T(v)
	}
	return Cluster[T]{X: values[0], Y: values[1], Count: values[2]}, true
}

func headerTokens(line string) (first, second string, sepOK, ok bool) {
	open := strings.IndexByte(line, headerOpen)
	if open < 0 {
		return "", "", false, false
	}
	pos := open + 1
	first, pos = token(line, pos, " ")
	sepOK = strings.HasPrefix(line[pos:], headerSeparator)
	pos = min(pos+len(headerSeparator), len(line))
	second, _ = token(line, pos, " ")
	return first, second, sepOK, true
}

// clusterTokens splits the three fields after '['. wellFormed reports whether
// the exact "[a, b, c]" layout was present.
func clusterTokens(line string) (fields [3]string, wellFormed, ok bool) {
	open := strings.IndexByte(line, clusterOpen)
	if open < 0 {
		return fields, false, false
	}
	wellFormed = true
	pos := open + 1
	for i := range fields {
		fields[i], pos = token(line, pos, ",]")
		if i < len(fields)-1 {
			if !strings.HasPrefix(line[pos:], fieldSeparator) {
				wellFormed = false
			}
			if pos < len(line) && line[pos] == ',' {
				pos++
				for pos < len(line) && line[pos] == ' ' {
					pos++
				}
			}
			continue
		}
		if pos >= len(line) || line[pos] != clusterClose {
			wellFormed = false
		}
	}
	return fields, wellFormed, true
}

// token returns line[pos:] up to the first byte in stops, and the index of
// that byte (len(line) when none is found). pos past the end yields "".
func token(line string, pos int, stops string) (string, int) {
	if pos >= len(line) {
		return "", len(line)
	}
	end := strings.IndexAny(line[pos:], stops)
	if end < 0 {
		return line[pos:], len(line)
	}
	return line[pos : pos+end], pos + end
}

// atoi converts the leading integer of s: optional spaces, an optional sign,
// then digits. Anything else ends the number; no digits gives 0. Values that
// overflow int64 saturate.
func atoi(s string) int64 {
	i := skipSpace(s, 0)
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	var n uint64
	const limit = 1 << 63
	for ; i < len(s) && isDigit(s[i]); i++ {
		if n > limit/10 {
			n = limit
			continue
		}
		n = n*10 + uint64(s[i]-'0')
	}
	switch {
	case neg && n >= limit:
		return -1 << 63
	case n >= limit:
		return 1<<63 - 1
	case neg:
		return -int64(n)
	default:
		return int64(n)
	}
}

// atof converts the longest leading decimal float of s, in the same lenient
// way as atoi.
func atof(s string) float64 {
	start := skipSpace(s, 0)
	i := start
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for ; i < len(s) && isDigit(s[i]); i++ {
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for ; i < len(s) && isDigit(s[i]); i++ {
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	// Out-of-range values come back as ±Inf, as strtod does.
	v, _ := strconv.ParseFloat(s[start:i], 64)
	return v
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r' || s[i] == '\v' || s[i] == '\f') {
		i++
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

package log

import (
	"fmt"
	"io"
	"math/big"
	"reflect"
	"strconv"
	"time"
)

const termTimeFormat = "01-02|15:04:05.000"

// writeTimeTermFormat appends t formatted the way the terminal handler
// prefixes every line, avoiding the allocation time.Format makes.
func writeTimeTermFormat(buf io.Writer, t time.Time) {
	buf.Write(t.AppendFormat(nil, termTimeFormat))
}

// FormatLogfmtInt64 formats n with thousands separators the way logfmt and
// terminal output group large counters (ban backoff durations, epoch
// indices) for human readability.
func FormatLogfmtInt64(n int64) string {
	if n < 0 {
		return "-" + FormatLogfmtUint64(uint64(-n))
	}
	return FormatLogfmtUint64(uint64(n))
}

// FormatLogfmtUint64 formats n with thousands separators, left alone below
// 100,000 where the grouping buys nothing but noise.
func FormatLogfmtUint64(n uint64) string {
	if n < 100000 {
		return strconv.FormatUint(n, 10)
	}
	return groupThousands(strconv.FormatUint(n, 10))
}

// formatLogfmtBigInt formats v with thousands separators.
func formatLogfmtBigInt(v *big.Int) string {
	if v == nil {
		return "<nil>"
	}
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)
	var in string
	if abs.IsUint64() && abs.Uint64() < 100000 {
		in = abs.String()
	} else {
		in = groupThousands(abs.String())
	}
	if neg {
		return "-" + in
	}
	return in
}

// groupThousands inserts a comma every three digits from the right of a
// decimal digit string, e.g. "1000000" -> "1,000,000".
func groupThousands(in string) string {
	nGroups := (len(in) - 1) / 3
	out := make([]byte, len(in)+nGroups)
	inPos, outPos, count := len(in)-1, len(out)-1, 0
	for ; inPos >= 0; inPos, outPos = inPos-1, outPos-1 {
		if count == 3 {
			out[outPos] = ','
			outPos--
			count = 0
		}
		out[outPos] = in[inPos]
		count++
	}
	return string(out)
}

// formatLogfmtValue renders v the way the terminal and logfmt handlers
// render attribute values: numbers grouped, strings quoted only when they
// contain a space, '=', '"' or a control character, everything else via
// %v/%+v.
func formatLogfmtValue(v any) string {
	if v == nil {
		return "<nil>"
	}
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339)
	case *big.Int:
		return formatLogfmtBigInt(x)
	case error:
		return quoteIfNeeded(x.Error())
	case string:
		return quoteIfNeeded(x)
	case fmt.Stringer:
		return quoteIfNeeded(x.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FormatLogfmtInt64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return FormatLogfmtUint64(rv.Uint())
	case reflect.Ptr:
		if rv.IsNil() {
			return "<nil>"
		}
		return quoteIfNeeded(fmt.Sprintf("&%+v", rv.Elem().Interface()))
	case reflect.Struct:
		return quoteIfNeeded(fmt.Sprintf("%+v", v))
	default:
		return quoteIfNeeded(fmt.Sprintf("%v", v))
	}
}

func quoteIfNeeded(s string) string {
	needsQuoting := false
	for _, r := range s {
		if r == ' ' || r == '=' || r == '"' || r < 0x20 {
			needsQuoting = true
			break
		}
	}
	if !needsQuoting {
		return s
	}
	return strconv.Quote(s)
}

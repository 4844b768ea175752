package cart

import "math"

// ParsePrice reads a leading integer from s: leading spaces and an optional
// sign are skipped, then digits are consumed up to the first other character.
// A string without leading digits yields 0. Values beyond the int64 range
// saturate at math.MaxInt64 (or its negation).
func ParsePrice(s string) int64 {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}

	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	var n int64
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		d := int64(s[i] - '0')
		if n > (math.MaxInt64-d)/10 {
			n = math.MaxInt64
			break
		}
		n = n*10 + d
	}

	if neg {
		return -n
	}
	return n
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

// NaturalLess compares two strings using natural-ordering: numeric runs
// are compared numerically, surrounding characters lexicographically.
// Map keys are sorted with this comparator before encoding so that
// "a2" sorts before "a10", which is load-bearing for canonicalization —
// any two implementations encoding the same map must agree byte for
// byte.
func NaturalLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			ia, na := scanDigits(a, i)
			ib, nb := scanDigits(b, j)
			numA, numB := trimLeadingZeros(a[i:ia]), trimLeadingZeros(b[j:ib])
			if len(numA) != len(numB) {
				return len(numA) < len(numB)
			}
			if numA != numB {
				return numA < numB
			}
			i, j = ia, ib
			_ = na
			_ = nb
			continue
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func scanDigits(s string, start int) (end int, length int) {
	end = start
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	return end, end - start
}

func trimLeadingZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}

// Package cpf validates Brazilian CPF tax identifiers.
package cpf

import "strings"

// Strip removes everything that is not a digit, so "529.982.247-25" and
// "52998224725" validate the same way.
func Strip(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid runs the two mod-11 check digits over an 11-digit CPF. Sequences of
// a single repeated digit pass the checksum but are not issued, so they are
// rejected up front.
func Valid(s string) bool {
	v := Strip(s)
	if len(v) != 11 {
		return false
	}

	same := true
	for i := 1; i < len(v); i++ {
		if v[i] != v[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}

	if checkDigit(v, 9) != int(v[9]-'0') {
		return false
	}
	return checkDigit(v, 10) == int(v[10]-'0')
}

func checkDigit(v string, pos int) int {
	sum := 0
	for i := 0; i < pos; i++ {
		sum += int(v[i]-'0') * (pos + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

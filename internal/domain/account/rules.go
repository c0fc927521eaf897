package account

import (
	"regexp"
	"strings"
)

const CPFLength = 11

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail applies the basic local@domain.tld shape check.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeCPF drops everything that is not an ASCII digit.
func NormalizeCPF(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPFLength reports whether a normalized CPF has exactly 11 digits.
func ValidCPFLength(cpf string) bool {
	return len(cpf) == CPFLength
}

// ValidCPFCheckDigits verifies the two trailing mod-11 check digits of a
// normalized CPF. Sequences of one repeated digit pass the arithmetic but
// are never issued, so they are rejected.
func ValidCPFCheckDigits(cpf string) bool {
	if !ValidCPFLength(cpf) {
		return false
	}
	if strings.Count(cpf, cpf[:1]) == CPFLength {
		return false
	}
	return cpfDigit(cpf[:9]) == cpf[9] && cpfDigit(cpf[:10]) == cpf[10]
}

// CompleteCPF appends the two check digits to a nine digit base.
func CompleteCPF(base string) string {
	withFirst := base + string(cpfDigit(base))
	return withFirst + string(cpfDigit(withFirst))
}

// cpfDigit computes the mod-11 check digit of prefix, weighting its digits
// from len(prefix)+1 down to 2.
func cpfDigit(prefix string) byte {
	weight := len(prefix) + 1
	sum := 0
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * (weight - i)
	}
	rest := sum % 11
	if rest < 2 {
		return '0'
	}
	return byte('0' + 11 - rest)
}

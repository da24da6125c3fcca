package billing

// ValidCPF checks the two check digits of a Brazilian CPF. Punctuation is
// ignored; eleven equal digits are rejected.
func ValidCPF(raw string) bool {
	digits := make([]int, 0, 11)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) != 11 {
		return false
	}
	if allSame(digits) {
		return false
	}
	return checkDigit(digits[:9], 10) == digits[9] && checkDigit(digits[:10], 11) == digits[10]
}

func checkDigit(ds []int, weight int) int {
	sum := 0
	for i, d := range ds {
		sum += d * (weight - i)
	}
	r := (sum * 10) % 11
	if r == 10 {
		return 0
	}
	return r
}

func allSame(ds []int) bool {
	for _, d := range ds[1:] {
		if d != ds[0] {
			return false
		}
	}
	return true
}

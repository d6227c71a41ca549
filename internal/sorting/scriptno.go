package sorting

import "strings"

// tokenize режет строку на максимальные серии цифр и не-цифр в исходном порядке: "714A" -> ["714", "A"]
func tokenize(value string) []string {
	tokens := []string{}
	start := 0
	for i := 1; i <= len(value); i++ {
		if i == len(value) || isDigit(value[i]) != isDigit(value[start]) {
			tokens = append(tokens, value[start:i])
			start = i
		}
	}
	return tokens
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isNumericToken(token string) bool {
	return token != "" && isDigit(token[0])
}

// compareNumeric сравнивает серии цифр как беззнаковые числа любой длины,
// при равенстве значений короче та, где меньше цифр
func compareNumeric(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")

	if len(ta) != len(tb) {
		return sign(len(ta) - len(tb))
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	return sign(len(a) - len(b))
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

// CompareScriptNo - натуральный порядок номеров сценариев: "713" < "714" < "714A" < "714B" < "715"
func CompareScriptNo(left, right string) int {
	a := tokenize(left)
	b := tokenize(right)

	for i := 0; i < max(len(a), len(b)); i++ {
		if i >= len(a) {
			return -1
		}
		if i >= len(b) {
			return 1
		}

		partA, partB := a[i], b[i]
		numA, numB := isNumericToken(partA), isNumericToken(partB)

		if numA && numB {
			if c := compareNumeric(partA, partB); c != 0 {
				return c
			}
			continue
		}

		if numA != numB {
			if numA {
				return -1
			}
			return 1
		}

		if c := CompareLocale(partA, partB); c != 0 {
			return c
		}
	}

	return CompareLocale(left, right)
}

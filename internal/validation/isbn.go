// Package validation содержит функции валидации входных данных.
package validation

import "strings"

// IsValidISBN проверяет контрольную сумму ISBN-10 или ISBN-13.
// Дефисы и пробелы в записи номера игнорируются.
func IsValidISBN(isbn string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, isbn)

	switch len(cleaned) {
	case 10:
		return isValidISBN10(cleaned)
	case 13:
		return isValidISBN13(cleaned)
	}
	return false
}

func isValidISBN10(isbn string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		ch := isbn[i]

		var digit int
		switch {
		case ch >= '0' && ch <= '9':
			digit = int(ch - '0')
		case (ch == 'X' || ch == 'x') && i == 9:
			// Контрольный символ X обозначает значение 10.
			digit = 10
		default:
			return false
		}

		sum += digit * (10 - i)
	}
	return sum%11 == 0
}

func isValidISBN13(isbn string) bool {
	sum := 0
	for i := 0; i < 13; i++ {
		ch := isbn[i]
		if ch < '0' || ch > '9' {
			return false
		}
		digit := int(ch - '0')
		if i%2 == 1 {
			digit *= 3
		}
		sum += digit
	}
	return sum%10 == 0
}

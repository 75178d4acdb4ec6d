// Package validation содержит функции валидации входных данных.
package validation

import "unicode"

// IsValidReferralCode проверяет формат реферального кода:
// от 6 до 12 символов, только заглавные латинские буквы и цифры.
func IsValidReferralCode(code string) bool {
	if len(code) < 6 || len(code) > 12 {
		return false
	}

	for _, ch := range code {
		if ch > unicode.MaxASCII {
			return false
		}
		if !unicode.IsDigit(ch) && !unicode.IsUpper(ch) {
			return false
		}
	}

	return true
}

// IsValidQuantity проверяет количество товара в позиции заказа.
func IsValidQuantity(q int) bool {
	return q > 0 && q <= 1000
}

// IsValidUnitPrice проверяет цену позиции в минимальных единицах валюты.
func IsValidUnitPrice(p int64) bool {
	return p >= 0
}

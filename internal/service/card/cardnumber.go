package card

import (
	"crypto/rand"
	"fmt"
)

// GenerateNumber produces a card number of the given length: prefix, random
// body and a Luhn check digit at the end
func GenerateNumber(prefix string, length int) (string, error) {
	if length <= len(prefix) || length > 19 {
		return "", fmt.Errorf("invalid card number length: %d", length)
	}

	body := make([]byte, length-len(prefix)-1)
	_, err := rand.Read(body)
	if err != nil {
		return "", fmt.Errorf("failed to generate random digits: %w", err)
	}

	number := make([]byte, 0, length)
	number = append(number, prefix...)
	for _, b := range body {
		number = append(number, b%10+'0')
	}

	return string(append(number, luhnCheckDigit(number))), nil
}

// GenerateCVV produces a 3-digit security code
func GenerateCVV() (string, error) {
	b := make([]byte, 3)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate cvv: %w", err)
	}

	return fmt.Sprintf("%d%d%d", b[0]%10, b[1]%10, b[2]%10), nil
}

// luhnCheckDigit computes the digit that makes number+digit pass the Luhn check
func luhnCheckDigit(number []byte) byte {
	sum := 0
	// The check digit occupies position 1 from the right, so the number's
	// last digit lands on an even position and gets doubled
	for i := 0; i < len(number); i++ {
		digit := int(number[len(number)-1-i] - '0')
		if i%2 == 0 {
			digit *= 2
			if digit > 9 {
				digit = (digit % 10) + 1
			}
		}
		sum += digit
	}

	return byte((10-sum%10)%10) + '0'
}

// ValidLuhn reports whether the number passes the Luhn checksum
func ValidLuhn(number string) bool {
	sum := 0
	for i := 0; i < len(number); i++ {
		n := number[len(number)-1-i]
		if n < '0' || n > '9' {
			return false
		}

		digit := int(n - '0')
		if i%2 == 1 {
			digit *= 2
			if digit > 9 {
				digit = (digit % 10) + 1
			}
		}
		sum += digit
	}

	return sum%10 == 0
}

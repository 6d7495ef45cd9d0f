package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength         = 2
	MaxNameLength         = 100
	MaxCropNameLength     = 100
	MaxLocationLength     = 200
	MaxDescriptionLength  = 2000
	MaxOfferMessageLength = 500
	MaxQuantity           = 1000000000.0
	MaxPrice              = 100000000.0 // 100 миллионов
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// NormalizePhone убирает пробелы, дефисы и скобки.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// ValidatePhone проверяет номер телефона после нормализации.
func ValidatePhone(phone string) error {
	if phone == "" {
		return fmt.Errorf("телефон обязателен")
	}
	if !phoneRegex.MatchString(NormalizePhone(phone)) {
		return fmt.Errorf("телефон должен содержать от 10 до 15 цифр")
	}
	return nil
}

// ValidateName проверяет имя пользователя.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("имя обязательно")
	}
	return ValidateLength("имя", name, MinNameLength, MaxNameLength)
}

// ValidateOfferMessage проверяет сообщение к предложению.
func ValidateOfferMessage(message string) error {
	return ValidateLength("сообщение", strings.TrimSpace(message), 0, MaxOfferMessageLength)
}

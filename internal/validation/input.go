package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength        = 2
	MaxNameLength        = 100
	MinJobTitleLength    = 3
	MaxJobTitleLength    = 200
	MinJobDescLength     = 10
	MaxJobDescLength     = 5000
	MinProposalLength    = 10
	MaxProposalLength    = 2000
	MaxBioLength         = 1000
	MaxLocationLength    = 100
	MaxSkillLength       = 50
	MaxSkillsCount       = 50
	MinPasswordLength    = 8
	MaxReviewLength      = 2000
	MaxDisputeReasonLen  = 200
	MaxDisputeDescLength = 2000
	MinBudget            = 0.0
	MaxBudget            = 100000000.0 // 100 миллионов
)

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

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	localRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !localRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("пароль должен быть не менее %d символов", MinPasswordLength)
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

// ValidateSkills проверяет список названий навыков.
func ValidateSkills(skills []string) error {
	if len(skills) > MaxSkillsCount {
		return fmt.Errorf("слишком много навыков: максимум %d", MaxSkillsCount)
	}
	// Навыки уникальны по имени без учёта регистра.
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		if err := ValidateNonEmpty("навык", skill); err != nil {
			return err
		}
		if err := ValidateLength("навык", skill, 1, MaxSkillLength); err != nil {
			return err
		}
		key := strings.ToLower(strings.TrimSpace(skill))
		if _, ok := seen[key]; ok {
			return fmt.Errorf("навык %q указан дважды", skill)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// ValidateAmount проверяет, что денежная сумма положительна и в разумных пределах.
func ValidateAmount(fieldName string, amount float64) error {
	if amount <= MinBudget {
		return fmt.Errorf("%s должна быть положительной", fieldName)
	}
	if amount > MaxBudget {
		return fmt.Errorf("%s превышает допустимый максимум", fieldName)
	}
	return nil
}

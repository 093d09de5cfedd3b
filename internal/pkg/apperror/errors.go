package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden            ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest           ErrorCode = "BAD_REQUEST"
	ErrCodeConflict             ErrorCode = "CONFLICT"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation           ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidTransition    ErrorCode = "INVALID_TRANSITION"
	ErrCodeDuplicateApplication ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeAlreadyDecided       ErrorCode = "ALREADY_DECIDED"
	// Частичные сбои межагрегатных операций: первая запись зафиксирована,
	// вторая не прошла. Требуют выверки, а не повторного запроса.
	ErrCodePartialAward   ErrorCode = "PARTIAL_AWARD"
	ErrCodePartialPayment ErrorCode = "PARTIAL_PAYMENT"
	// Внешний шлюз не ответил вовремя. Исход операции неизвестен,
	// клиент может повторить запрос.
	ErrCodeGatewayTimeout ErrorCode = "GATEWAY_TIMEOUT"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidTransition, ErrCodeDuplicateApplication:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeAlreadyDecided:
		return http.StatusConflict
	case ErrCodeGatewayTimeout:
		return http.StatusGatewayTimeout
	default:
		// Частичные сбои тоже отдаём как 500, клиент различает их по коду.
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsGatewayTimeout(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeGatewayTimeout
}

// IsPartialFailure сообщает, что межагрегатная операция осталась
// в несогласованном состоянии и должна попасть в выверку.
func IsPartialFailure(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == ErrCodePartialAward || appErr.Code == ErrCodePartialPayment
}

// Code возвращает код ошибки или ErrCodeInternal для неизвестных ошибок.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

var (
	ErrJobNotFound         = New(ErrCodeNotFound, "вакансия не найдена")
	ErrContractNotFound    = New(ErrCodeNotFound, "контракт не найден")
	ErrUserNotFound        = New(ErrCodeNotFound, "пользователь не найден")
	ErrApplicationNotFound = New(ErrCodeNotFound, "отклик не найден")
	ErrMilestoneNotFound   = New(ErrCodeNotFound, "этап не найден")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden           = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials  = New(ErrCodeUnauthorized, "неверные учетные данные")

	ErrJobNotOpen           = New(ErrCodeInvalidTransition, "вакансия закрыта для откликов")
	ErrDuplicateApplication = New(ErrCodeDuplicateApplication, "вы уже откликнулись на эту вакансию")
	ErrAlreadyDecided       = New(ErrCodeAlreadyDecided, "по вакансии уже выбран исполнитель")
)

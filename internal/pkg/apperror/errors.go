package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeAccountBanned      ErrorCode = "ACCOUNT_BANNED"
	ErrCodeAccountFrozen      ErrorCode = "ACCOUNT_FROZEN"
	ErrCodeQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	ErrCodeUploadFailed       ErrorCode = "UPLOAD_FAILED"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodePermissionDenied   ErrorCode = "PERMISSION_DENIED"
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
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

// Is позволяет сравнивать ошибки по коду через errors.Is,
// чтобы sentinel-ошибки ниже работали и для обёрнутых экземпляров.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
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
	case ErrCodeAccountBanned, ErrCodeAccountFrozen, ErrCodePermissionDenied:
		return http.StatusForbidden
	case ErrCodeQuotaExceeded:
		return http.StatusTooManyRequests
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPStatusOf возвращает HTTP статус для произвольной ошибки.
func HTTPStatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound)
}

// Закрытая таксономия ошибок конвейера безопасности контента.
var (
	ErrAccountBanned      = New(ErrCodeAccountBanned, "аккаунт заблокирован")
	ErrAccountFrozen      = New(ErrCodeAccountFrozen, "аккаунт временно заморожен")
	ErrQuotaExceeded      = New(ErrCodeQuotaExceeded, "дневной лимит загрузок исчерпан")
	ErrStorageUnavailable = New(ErrCodeStorageUnavailable, "хранилище не сконфигурировано")
	ErrUploadFailed       = New(ErrCodeUploadFailed, "не удалось передать файл")
	ErrMediaNotFound      = New(ErrCodeNotFound, "медиа не найдено")
	ErrReportNotFound     = New(ErrCodeNotFound, "жалоба не найдена")
	ErrUserNotFound       = New(ErrCodeNotFound, "пользователь не найден")
	ErrPermissionDenied   = New(ErrCodePermissionDenied, "недостаточно прав")
	ErrUnauthorized       = New(ErrCodePermissionDenied, "требуется авторизация")
	ErrInvalidCredentials = New(ErrCodePermissionDenied, "неверные учетные данные")
)

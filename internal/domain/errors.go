package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput неверные входные данные
	ErrInvalidInput = errors.New("invalid input data")

	// ErrUnauthenticated пользователь не аутентифицирован
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnauthorized пользователь не авторизован
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal внутренняя ошибка
	ErrInternal = errors.New("internal error")

	// ErrConfiguration отсутствует обязательное значение конфигурации
	ErrConfiguration = errors.New("configuration error")

	// ErrPersistence ошибка чтения или записи локального хранилища
	ErrPersistence = errors.New("persistence error")

	// ErrExternalServiceUnavailable внешний сервис недоступен
	ErrExternalServiceUnavailable = errors.New("external service unavailable")

	// ErrWebhookValidationFailed не удалось проверить подпись вебхука
	ErrWebhookValidationFailed = errors.New("webhook validation failed")

	// ErrCustomerNotFound клиент не найден у провайдера
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrSubscriptionCancelled подписка отменена
	ErrSubscriptionCancelled = errors.New("subscription cancelled")
)

// SubscriptionError представляет ошибку обработки подписки
type SubscriptionError struct {
	Code           string
	Message        string
	SubscriptionID string
	OriginalErr    error
}

// Error реализует интерфейс error
func (e *SubscriptionError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("subscription error [%s]: %s: %v (subscription_id: %s)", e.Code, e.Message, e.OriginalErr, e.SubscriptionID)
	}
	return fmt.Sprintf("subscription error [%s]: %s (subscription_id: %s)", e.Code, e.Message, e.SubscriptionID)
}

// Unwrap возвращает оригинальную ошибку
func (e *SubscriptionError) Unwrap() error {
	return e.OriginalErr
}

// NewSubscriptionError создает новую ошибку подписки
func NewSubscriptionError(code, message, subscriptionID string, err error) *SubscriptionError {
	return &SubscriptionError{
		Code:           code,
		Message:        message,
		SubscriptionID: subscriptionID,
		OriginalErr:    err,
	}
}

// ExternalServiceError представляет ошибку внешнего сервиса
type ExternalServiceError struct {
	Service     string
	Code        string
	Message     string
	StatusCode  int
	OriginalErr error
}

// Error реализует интерфейс error
func (e *ExternalServiceError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s service error [%s]: %s: %v", e.Service, e.Code, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("%s service error [%s]: %s", e.Service, e.Code, e.Message)
}

// Unwrap возвращает оригинальную ошибку
func (e *ExternalServiceError) Unwrap() error {
	return e.OriginalErr
}

// Is позволяет сопоставлять ошибку с ErrExternalServiceUnavailable
func (e *ExternalServiceError) Is(target error) bool {
	return target == ErrExternalServiceUnavailable
}

// NewExternalServiceError создает новую ошибку внешнего сервиса
func NewExternalServiceError(service, code, message string, statusCode int, err error) *ExternalServiceError {
	return &ExternalServiceError{
		Service:     service,
		Code:        code,
		Message:     message,
		StatusCode:  statusCode,
		OriginalErr: err,
	}
}

// NotFoundError представляет ошибку "не найдено"
type NotFoundError struct {
	Entity string
	ID     string
}

// Error реализует интерфейс error
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Is проверяет, является ли ошибка ошибкой типа "не найдено"
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError создает новую ошибку "не найдено"
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

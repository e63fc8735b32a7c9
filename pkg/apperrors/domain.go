package apperrors

import (
	"net/http"
)

/*
Фабрики и предопределенные ошибки предметной области.
Сообщения возвращаются клиенту как есть, поэтому менять их нужно осторожно.
*/

// =========================================================================
// Фабричные ФУНКЦИИ
// =========================================================================

// ErrNotFound - фабрика для ошибки "не найдено" (404).
// Используется, когда sentinel-ошибка репозитория превращается в AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "No document found with that ID", http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrRouteNotFound - для маршрутов, которых нет на сервере
func ErrRouteNotFound(url string) *AppError {
	return New(CodeRouteNotFound, "request", "Can't find "+url+" on this server!", http.StatusNotFound)
}

// =========================================================================
// Identity Guard
// =========================================================================

// ErrMissingCredentials - в запросе логина нет email или пароля.
var ErrMissingCredentials = New(
	CodeValidationFailed,
	"auth",
	"Please provide email and password",
	http.StatusBadRequest,
)

// ErrInvalidCredentials - один ответ и для неизвестного email, и для неверного пароля.
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid credentials. Check email and password.",
	http.StatusUnauthorized,
)

var ErrNotLoggedIn = New(
	CodeUnauthorized,
	"auth",
	"You are not logged in! Please log in to get access",
	http.StatusUnauthorized,
)

// ErrInvalidToken - подпись не сошлась или токен поврежден.
var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid token. Please log in again.",
	http.StatusUnauthorized,
)

var ErrTokenExpired = New(
	CodeTokenExpired,
	"auth",
	"Your token has expired! Please log in again.",
	http.StatusUnauthorized,
)

// ErrTokenUserGone - пользователь удален (или деактивирован) после выдачи токена.
var ErrTokenUserGone = New(
	CodeUnauthorized,
	"auth",
	"User having the token no longer exists.",
	http.StatusUnauthorized,
)

// ErrPasswordChanged - токен выдан до последней смены пароля.
var ErrPasswordChanged = New(
	CodeUnauthorized,
	"auth",
	"User recently changed password. Please log in again",
	http.StatusUnauthorized,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"You do not have permission to perform this operation.",
	http.StatusForbidden,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use. Please use another email!",
	http.StatusConflict,
)

var ErrNoUserWithEmail = New(
	CodeNotFound,
	"auth",
	"There is no user with that email address.",
	http.StatusNotFound,
)

// ErrResetTokenInvalid - токен сброса не найден или истек.
var ErrResetTokenInvalid = New(
	CodeInvalidToken,
	"auth",
	"Token is invalid or has expired.",
	http.StatusBadRequest,
)

var ErrWrongCurrentPassword = New(
	CodeInvalidCredentials,
	"auth",
	"Your current password is incorrect. Please try again.",
	http.StatusUnauthorized,
)

// ErrResetEmailFailed - письмо со ссылкой не ушло, токен уже откатан.
func ErrResetEmailFailed(err error) *AppError {
	return DependencyError(err, "email", "There was a problem sending the email. Please try again later.", http.StatusInternalServerError)
}

// =========================================================================
// Users
// =========================================================================

var ErrPasswordUpdateNotAllowed = New(
	CodeInvalidOperation,
	"user",
	"This route is not for updating password. Please use /updateMyPassword",
	http.StatusBadRequest,
)

var ErrUseSignup = New(
	CodeInvalidOperation,
	"user",
	"This route is not defined. Please use /signup instead.",
	http.StatusInternalServerError,
)

// =========================================================================
// Tours, Reviews, Bookings
// =========================================================================

var ErrTourNameNotFound = New(
	CodeNotFound,
	"tour",
	"There is no tour with that name.",
	http.StatusNotFound,
)

var ErrInvalidLatLng = New(
	CodeValidationFailed,
	"tour",
	"Please provide latitude and longitude in the format lat,lng.",
	http.StatusBadRequest,
)

var ErrDuplicateReview = New(
	CodeAlreadyExists,
	"review",
	"You have already reviewed this tour.",
	http.StatusConflict,
)

var ErrNotAnImage = New(
	CodeValidationFailed,
	"upload",
	"Not an image! Please upload only images.",
	http.StatusBadRequest,
)

var ErrTooManyRequests = New(
	CodeLimitExceeded,
	"request",
	"Too many requests from this IP, please try again in an hour!",
	http.StatusTooManyRequests,
)

// ErrPaymentFailed - платежный шлюз вернул ошибку.
func ErrPaymentFailed(err error) *AppError {
	return DependencyError(err, "payment", "Payment provider is unavailable. Please try again later.", http.StatusBadGateway)
}

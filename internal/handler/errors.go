package handler

import (
	"errors"
	"net/http"

	"github.com/prn-tf/gatehouse/internal/domain"
	"github.com/prn-tf/gatehouse/internal/service"
	"github.com/prn-tf/gatehouse/internal/storage"
)

// mapError translates an error into an HTTP status and a user-facing message.
//
// Business errors map to distinct statuses and messages; infrastructure
// failures collapse into a single 500 message with details kept in the logs.
// "Invalid credentials" deliberately covers both unknown email and wrong
// password so responses never reveal which one it was.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusForbidden, "Account is locked. Try again later."
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return http.StatusConflict, "Username or email is already taken"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "Account not found"
	case errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, storage.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "Avatar file is too large"
	case errors.Is(err, storage.ErrUnsupportedType):
		return http.StatusBadRequest, "Avatar must be a PNG, JPEG, GIF, or WebP image"
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

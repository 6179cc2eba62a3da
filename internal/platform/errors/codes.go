// Package errors provides structured error handling for city services.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeBadRequest covers malformed request bodies and query input.
	CodeBadRequest Code = "BAD_REQUEST"

	// Auth errors
	CodeUnauthenticated     Code = "UNAUTHENTICATED"
	CodeSessionTokenInvalid Code = "SESSION_TOKEN_INVALID"
	CodeSessionTokenExpired Code = "SESSION_TOKEN_EXPIRED"
	CodeOAuthExchangeFailed Code = "OAUTH_EXCHANGE_FAILED"
	CodeOAuthStateInvalid   Code = "OAUTH_STATE_INVALID"

	// Resident errors
	CodeResidentNotFound  Code = "RESIDENT_NOT_FOUND"
	CodeResidentEmptyName Code = "RESIDENT_EMPTY_NAME"

	// Post errors
	CodePostNotFound     Code = "POST_NOT_FOUND"
	CodePostEmptyTitle   Code = "POST_EMPTY_TITLE"
	CodePostInvalidKind  Code = "POST_INVALID_KIND"
	CodePostNotOwner     Code = "POST_NOT_OWNER"
	CodeCommentEmptyBody Code = "COMMENT_EMPTY_BODY"

	// Penthouse errors
	CodeBlockInvalidKind    Code = "BLOCK_INVALID_KIND"
	CodeBlockInvalidWidth   Code = "BLOCK_INVALID_WIDTH"
	CodeBlockInvalidContent Code = "BLOCK_INVALID_CONTENT"

	// Project errors
	CodeProjectNotFound       Code = "PROJECT_NOT_FOUND"
	CodeProjectEmptyTitle     Code = "PROJECT_EMPTY_TITLE"
	CodeProjectAlreadyApplied Code = "PROJECT_ALREADY_APPLIED"

	// Application errors
	CodeApplicationMissingField Code = "APPLICATION_MISSING_FIELD"

	// Media errors
	CodeMediaUploadFailed Code = "MEDIA_UPLOAD_FAILED"

	// Generic failure talking to storage or a downstream service.
	CodeBackendFailure Code = "BACKEND_FAILURE"
)

// HTTPStatus maps an error code to the HTTP status the API surface returns.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated, CodeSessionTokenInvalid, CodeSessionTokenExpired:
		return http.StatusUnauthorized
	case CodeResidentNotFound, CodePostNotFound, CodeProjectNotFound:
		return http.StatusNotFound
	case CodePostNotOwner:
		return http.StatusForbidden
	case CodeProjectAlreadyApplied:
		return http.StatusConflict
	case CodeResidentEmptyName, CodePostEmptyTitle, CodePostInvalidKind,
		CodeCommentEmptyBody, CodeBlockInvalidKind, CodeBlockInvalidWidth,
		CodeBlockInvalidContent, CodeProjectEmptyTitle,
		CodeApplicationMissingField, CodeOAuthStateInvalid, CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a gallery error code.
type ErrorCode string

const (
	ErrMalformedManifest ErrorCode = "MALFORMED_MANIFEST" // 422
	ErrDuplicatePage     ErrorCode = "DUPLICATE_PAGE"     // 409
	ErrPageNotFound      ErrorCode = "PAGE_NOT_FOUND"     // 404
	ErrPhotoNotFound     ErrorCode = "PHOTO_NOT_FOUND"    // 404
	ErrUnknownFont       ErrorCode = "UNKNOWN_FONT"       // 400
	ErrPublishFailure    ErrorCode = "PUBLISH_FAILURE"    // 502
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrInternal          ErrorCode = "INTERNAL"           // 500
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
)

// GalleryError represents a structured error with code, status, and details.
type GalleryError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *GalleryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *GalleryError) Unwrap() error {
	return e.cause
}

// NewMalformedManifest creates a 422 error for a manifest with no salvageable page sections.
func NewMalformedManifest(reason string) *GalleryError {
	return &GalleryError{
		Code:    ErrMalformedManifest,
		Status:  422,
		Message: fmt.Sprintf("manifest is malformed: %s", reason),
	}
}

// NewDuplicatePage creates a 409 error when a page directory already exists.
func NewDuplicatePage(id string) *GalleryError {
	return &GalleryError{
		Code:    ErrDuplicatePage,
		Status:  409,
		Message: fmt.Sprintf("a page with id %q already exists", id),
		Details: map[string]any{"id": id},
	}
}

// NewPageNotFound creates a 404 error for an unknown page id.
func NewPageNotFound(id string) *GalleryError {
	return &GalleryError{
		Code:    ErrPageNotFound,
		Status:  404,
		Message: fmt.Sprintf("page not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewPhotoNotFound creates a 404 error for a photo missing from a page.
func NewPhotoNotFound(page, filename string) *GalleryError {
	return &GalleryError{
		Code:    ErrPhotoNotFound,
		Status:  404,
		Message: fmt.Sprintf("photo %q not found in page %q", filename, page),
		Details: map[string]any{"page": page, "filename": filename},
	}
}

// NewUnknownFont creates a 400 error for a font absent from its catalog.
func NewUnknownFont(role, name string) *GalleryError {
	return &GalleryError{
		Code:    ErrUnknownFont,
		Status:  400,
		Message: fmt.Sprintf("unknown %s font: %q", role, name),
		Details: map[string]any{"role": role, "font": name},
	}
}

// NewPublishFailure creates a 502 error when the publish pipeline reports a failure.
func NewPublishFailure(err error) *GalleryError {
	msg := "publish failed"
	if err != nil {
		msg = fmt.Sprintf("publish failed: %v", err)
	}
	return &GalleryError{
		Code:    ErrPublishFailure,
		Status:  502,
		Message: msg,
		cause:   err,
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *GalleryError {
	return &GalleryError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a resource outside the gallery model,
// such as an unknown route.
func NewNotFound(what string) *GalleryError {
	return &GalleryError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found", what),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *GalleryError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GalleryError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a GalleryError with the given code.
func Is(err error, code ErrorCode) bool {
	var gErr *GalleryError
	if stderrors.As(err, &gErr) {
		return gErr.Code == code
	}
	return false
}

// From converts any error into a GalleryError. Errors that are not already
// gallery errors become INTERNAL. Returns nil for a nil error.
func From(err error) *GalleryError {
	if err == nil {
		return nil
	}
	var gErr *GalleryError
	if stderrors.As(err, &gErr) {
		return gErr
	}
	return NewInternal(err)
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/respond"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON reads the body into dst and runs its validate tags
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("Please fill in all fields.")
		}
		return apperrors.Wrap(apperrors.KindValidation, "Invalid request body", err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Wrap(apperrors.KindValidation, "Invalid request body", err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperrors.Validation("Please fill in all fields.")
	case "email":
		return apperrors.Validation("Invalid email address.")
	case "max":
		return apperrors.Validation(fmt.Sprintf("%s must be at most %s characters", strings.ToLower(fe.Field()), fe.Param()))
	default:
		return apperrors.Validation(fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
	}
}

// parseMultipart bounds the body size and parses a multipart form. Plain
// urlencoded bodies are accepted too.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	err := r.ParseMultipartForm(maxBytes)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.Validation("File is too large")
	}
	return apperrors.Wrap(apperrors.KindValidation, "Invalid form data", err)
}

// formFile returns the named upload, or nil when the field is absent
func formFile(r *http.Request, field string) (multipart.File, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, "Invalid file upload", err)
	}
	return file, nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, err)
}

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.Success(w, http.StatusOK, "ok", nil)
	}
}

package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	validator "github.com/go-playground/validator/v10"
)

// DecodeJSON reads a single JSON value into dst and validates it. An empty
// body is accepted and leaves dst untouched; anything after the value is
// rejected.
func DecodeJSON(r *http.Request, dst any, validate *validator.Validate) *AppError {
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		err := dec.Decode(dst)
		if err == nil {
			if extra := dec.Decode(&json.RawMessage{}); !errors.Is(extra, io.EOF) {
				if extra == nil {
					extra = errors.New("unexpected data after JSON value")
				}
				appErr := decodeError(extra)
				if appErr.Code == "BAD_REQUEST" {
					appErr.WithDetails(map[string]any{"reason": "trailing data"})
				}
				return appErr
			}
		} else if !errors.Is(err, io.EOF) {
			return decodeError(err)
		}
	}
	if validate == nil {
		return nil
	}
	if err := validate.Struct(dst); err != nil {
		return NewAppError("BAD_REQUEST", "validation failed", http.StatusBadRequest, err).WithDetails(ValidationDetails(err))
	}
	return nil
}

func decodeError(err error) *AppError {
	appErr := NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, err)
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		appErr.WithDetails(map[string]any{"offset": syntaxErr.Offset})
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		appErr.Code = "PAYLOAD_TOO_LARGE"
		appErr.Message = "request body too large"
		appErr.HTTPStatus = http.StatusRequestEntityTooLarge
	}
	return appErr
}

// ValidationDetails maps validator field errors to field -> failed rule.
func ValidationDetails(err error) map[string]string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

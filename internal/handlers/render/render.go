package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	ValidationFailedMessage = "Validation failed"
)

var validate = newValidator()

type Struct any

// Response is the envelope of every API response
type Response struct {
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	Data     any       `json:"data,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Pagination of list responses, page is 1-based
type Metadata struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int   `json:"total"` // pages
}

func JSON(w http.ResponseWriter, message string, data any) {
	jsonWithStatus(w, Response{Status: StatusSuccess, Message: message, Data: data}, http.StatusOK)
}

func Created(w http.ResponseWriter, message string, data any) {
	jsonWithStatus(w, Response{Status: StatusSuccess, Message: message, Data: data}, http.StatusCreated)
}

func Page(w http.ResponseWriter, message string, data any, meta Metadata) {
	jsonWithStatus(w, Response{Status: StatusSuccess, Message: message, Data: data, Metadata: &meta}, http.StatusOK)
}

// Render ServiceError
func ServiceError(w http.ResponseWriter, message string, code int) {
	jsonWithStatus(w, Response{Status: StatusError, Message: message}, code)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	var (
		message   string
		typeError *json.UnmarshalTypeError
	)

	// Try to provide more specific error message based on error type
	switch {
	case errors.As(err, &typeError):
		message = fmt.Sprintf("Invalid data type for field '%s'", typeError.Field)
	default:
		message = "Invalid JSON format or malformed request body"
	}

	ServiceError(w, message, http.StatusBadRequest)
}

// Render ValidationErrors as field -> reason map
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	fields := make(map[string]string, len(errs))

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min", "gte":
			message = fmt.Sprintf("Value is too small (minimum %s)", fieldError.Param())
		case "max", "lte":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "email":
			message = "Must be a valid email"
		case "accountcode":
			message = "Must look like ACC-000001"
		case "txtype":
			message = "Must be 'deposit' or 'withdraw'"
		default:
			message = "Invalid value"
		}

		fields[fieldError.Field()] = message
	}

	jsonWithStatus(w, Response{Status: StatusError, Message: ValidationFailedMessage, Data: fields}, http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// jsonWithStatus buffers the body first, so encode errors still produce a clean 500
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

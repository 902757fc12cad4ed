package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// validate reports fields by their JSON name so details match the request
// body the client sent.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}()

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []ValidationError `json:"details,omitempty"`
}

// ValidateRequest runs the validate tags of obj and returns nil when obj
// is valid.
func ValidateRequest(obj any) []ValidationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []ValidationError{{Message: err.Error(), Type: "invalid"}}
	}

	out := make([]ValidationError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Type:    fe.Tag(),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "alphanum":
		return "Value may only contain letters and digits"
	default:
		return "Invalid value"
	}
}

func RespondWithValidationError(c *gin.Context, details []ValidationError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Code:    "INVALID_INPUT",
		Message: "Invalid request data",
		Details: details,
	})
}

func RespondWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}

// RespondWithData writes the success envelope.
func RespondWithData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

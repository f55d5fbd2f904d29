package utils

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FormatValidationError formats validation errors into a readable string.
func FormatValidationError(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok {
		var errorMessages []string
		for _, e := range errs {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, fmt.Sprintf("%s is required", e.Field()))
			case "min":
				errorMessages = append(errorMessages, fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param()))
			case "email":
				errorMessages = append(errorMessages, "Invalid email format")
			case "oneof":
				errorMessages = append(errorMessages, fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param()))
			default:
				errorMessages = append(errorMessages, fmt.Sprintf("%s is invalid", e.Field()))
			}
		}
		return strings.Join(errorMessages, ", ")
	}
	return err.Error()
}

// BindAndValidate binds the request body to a struct and validates it.
// Missing required fields map to 422, all other validation failures to 400.
// Returns false if a response was already written.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if IsRequiredFieldError(err) {
			UnprocessableEntity(c, FormatValidationError(err))
		} else {
			BadRequest(c, "Invalid request payload: "+FormatValidationError(err))
		}
		return false
	}
	return true
}

// IsRequiredFieldError reports whether the validation failure concerns a
// missing required field.
func IsRequiredFieldError(err error) bool {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	for _, e := range errs {
		if e.Tag() == "required" || e.Tag() == "min" {
			return true
		}
	}
	return false
}

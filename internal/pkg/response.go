package pkg

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/smarttenders/internal/domain"
)

const internalMessage = "internal error"

// Response is the standard JSON envelope for API responses.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ValidationErrorResponse is the JSON envelope for validation error responses.
type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// Success sends a 200 JSON response with the given data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// Error sends a JSON error response. The status follows the error code of a
// *domain.AppError; only user-facing messages are echoed. Field errors
// reported by the remote API are passed through as a validation response.
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)
	msg := domain.SafeMessage(err, internalMessage)

	var appErr *domain.AppError
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		c.JSON(status, ValidationErrorResponse{
			Code:    status,
			Message: msg,
			Errors:  appErr.Fields,
		})
		return
	}

	c.JSON(status, Response{
		Code:    status,
		Message: msg,
		Data:    nil,
	})
}

// ValidationError sends a 400 JSON response with one readable message per
// failing field.
func ValidationError(c *gin.Context, err error) {
	validationErrorWithType(c, err, nil)
}

// BindAndValidate binds the request (JSON or form) into obj using gin's
// binding tags. On failure it writes the 400 response itself and returns
// false, so handlers only need to return.
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		validationErrorWithType(c, err, obj)
		return false
	}
	return true
}

func validationErrorWithType(c *gin.Context, err error, obj any) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: "malformed request",
			Data:    nil,
		})
		return
	}

	jsonTags := buildJSONTagMap(obj)
	fieldErrors := FieldErrors(ve, func(fe validator.FieldError) string {
		if tag, ok := jsonTags[fe.StructField()]; ok {
			return tag
		}
		return strings.ToLower(fe.Field())
	})

	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "validation error",
		Errors:  fieldErrors,
	})
}

// buildJSONTagMap maps struct field names of obj to their JSON names.
func buildJSONTagMap(obj any) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	m := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if name := parseJSONTagName(f.Tag.Get("json")); name != "" {
			m[f.Name] = name
		}
	}
	return m
}

func parseJSONTagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

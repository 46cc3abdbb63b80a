package web

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hpungsan/gallerist/internal/errors"
)

const maxJSONBody = 4 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("hexcolor", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != 4 && len(s) != 7 {
			return false
		}
		return s[0] == '#' && strings.Trim(s[1:], "0123456789abcdefABCDEF") == ""
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates it. An empty body is
// treated as "{}" so optional-only payloads may be omitted.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return errors.NewInvalidRequest("failed to read request body")
	}
	if len(body) > maxJSONBody {
		return errors.NewInvalidRequest("request body too large")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON: %v", err))
	}
	return validateStruct(dst)
}

// validateStruct runs the validate tags of s. Field failures become
// INVALID_REQUEST with one detail per field.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewInvalidRequest(err.Error())
	}

	fields := make(map[string]any, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
		names = append(names, fe.Field())
	}
	sort.Strings(names)

	gErr := errors.NewInvalidRequest(fmt.Sprintf("invalid fields: %s", strings.Join(names, ", ")))
	gErr.Details = map[string]any{"fields": fields}
	return gErr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return "Value is too long (max: " + fe.Param() + ")"
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "lte":
		return "Value must be at most " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "hexcolor":
		return "Must be a hex color such as #1a2b3c"
	default:
		return "Invalid value"
	}
}

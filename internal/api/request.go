package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate checks request DTOs. Field names in messages use json tags.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errEmptyBody is returned by decodeJSON for a request without a body.
var errEmptyBody = errors.New("request body is required")

// decodeJSON decodes the request body into dst and validates it. With
// allowEmpty an absent body leaves dst at its zero value.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return validate.Struct(dst)
			}
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return validate.Struct(dst)
}

// validationMessage renders validator errors as one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// writeDecodeError writes a 400 for a body that failed decodeJSON.
func writeDecodeError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, validationMessage(err))
		return
	}
	writeBadRequest(w, err.Error())
}

// lockToken returns the X-Lock-Token header value.
func lockToken(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(lockTokenHeader))
}

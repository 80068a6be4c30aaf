package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports which fields of a record failed their contract.
// Fields maps the struct namespace (e.g. "Token.AccessToken") to the failed
// validation tag.
type ValidationError struct {
	Context string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	if e.Context != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Context, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, ", "))
}

// Result is the outcome of SafeValidate.
type Result struct {
	Valid bool
	Err   *ValidationError
}

// Validate checks v against its struct tags and returns a structured
// ValidationError on failure. context names the record in the error message.
func Validate(v any, context string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: v was not a struct at all.
		return &ValidationError{
			Context: context,
			Fields:  map[string]string{"_": err.Error()},
		}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Trim the leading struct name so keys read "Token.AccessToken"
		// rather than "AuthState.Token.AccessToken".
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		fields[ns] = fe.Tag()
	}

	return &ValidationError{Context: context, Fields: fields}
}

// SafeValidate is the non-throwing variant of Validate: it never returns a
// plain error, only a success flag with the structured failure attached.
func SafeValidate(v any) Result {
	if err := Validate(v, ""); err != nil {
		var verr *ValidationError
		errors.As(err, &verr)
		return Result{Valid: false, Err: verr}
	}
	return Result{Valid: true}
}

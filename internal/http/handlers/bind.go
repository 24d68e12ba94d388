package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// bindError turns a gin JSON binding failure into a client message that names
// what was wrong instead of a blanket "invalid JSON".
func bindError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		timeErr   *time.ParseError
	)
	switch {
	case errors.Is(err, io.EOF):
		return errors.New("request body is required")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("request body must be valid JSON")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return fmt.Errorf("field %q must be a %s", typeErr.Field, typeErr.Type)
	case errors.As(err, &timeErr):
		return fmt.Errorf("invalid timestamp %q: times must be RFC 3339", timeErr.Value)
	}
	return fmt.Errorf("invalid request body: %w", err)
}

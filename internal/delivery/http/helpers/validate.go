package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// Validator is implemented by request DTOs that support validation.
// Validate returns a slice of error messages; nil or empty means valid.
type Validator interface {
	Validate() []string
}

// errEmptyBody is returned by DecodeBody when the body is required but absent.
var errEmptyBody = errors.New("request body is required")

// DecodeBody decodes the request body into dest with DisallowUnknownFields and
// runs Validate when dest implements Validator. An absent body is an error
// unless optional is set, in which case dest is left at its zero value and not
// validated. Absence is detected from the stream itself, so chunked requests
// with an unknown ContentLength behave like ones that declare zero.
func DecodeBody(r *http.Request, dest any, optional bool) error {
	if r.Body == nil || r.Body == http.NoBody {
		if optional {
			return nil
		}
		return errEmptyBody
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			if optional {
				return nil
			}
			return errEmptyBody
		}
		return err
	}
	if v, ok := dest.(Validator); ok {
		if errs := v.Validate(); len(errs) > 0 {
			return errors.New(strings.Join(errs, "; "))
		}
	}
	return nil
}

// DecodeAndValidate decodes a required body into dest. On decode or validation
// failure it writes a 400 JSON error and returns false.
// Callers should return immediately when DecodeAndValidate returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	return decodeOrReject(w, r, dest, false)
}

// DecodeOptional is DecodeAndValidate for endpoints whose body may be omitted.
func DecodeOptional(w http.ResponseWriter, r *http.Request, dest any) bool {
	return decodeOrReject(w, r, dest, true)
}

func decodeOrReject(w http.ResponseWriter, r *http.Request, dest any, optional bool) bool {
	if err := DecodeBody(r, dest, optional); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return false
	}
	return true
}

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

// DecodeAndValidate decodes the request body into dest (with DisallowUnknownFields)
// and, if dest implements Validator, runs Validate(). On failure it writes a 400 and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	return decode(w, r, dest, false)
}

// DecodeOptional is DecodeAndValidate for endpoints whose body may be omitted.
// An empty body leaves dest untouched and still runs Validate.
func DecodeOptional(w http.ResponseWriter, r *http.Request, dest any) bool {
	return decode(w, r, dest, true)
}

func decode(w http.ResponseWriter, r *http.Request, dest any, optional bool) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil && !(optional && errors.Is(err, io.EOF)) {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return false
	}
	if v, ok := dest.(Validator); ok {
		if errs := v.Validate(); len(errs) > 0 {
			WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, strings.Join(errs, "; "))
			return false
		}
	}
	return true
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

const maxBodySize = 1 << 20

var errInvalidBody = errors.New("invalid body")

// body is a request object kept as raw members so that an absent key, an
// explicit null and a value can be told apart.
type body map[string]json.RawMessage

// readJSON decodes the request body into v. The body must hold exactly one
// JSON value within maxBodySize; trailing data is rejected.
func readJSON(c echo.Context, v any) error {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if len(data) > maxBodySize {
		return errors.New("body too large")
	}
	if !sonic.ConfigStd.Valid(data) {
		return errors.New("body is not a single JSON value")
	}
	return sonic.ConfigStd.Unmarshal(data, v)
}

func decodeBody(c echo.Context) (body, error) {
	var b body
	if err := readJSON(c, &b); err != nil || b == nil {
		return nil, errInvalidBody
	}
	return b, nil
}

type presence int

const (
	absent presence = iota
	null
	given
	invalid
)

// fields reads typed members out of a body and collects every failure.
type fields struct {
	raw  body
	errs types.ValidationErrors
}

// newFields rejects any member not listed in allowed.
func newFields(raw body, allowed ...string) *fields {
	f := &fields{raw: raw}
	known := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		known[name] = true
	}
	for name := range raw {
		if !known[name] {
			f.fail(name, "is not a recognized field")
		}
	}
	return f
}

func (f *fields) fail(name, message string) {
	f.errs = append(f.errs, types.FieldError{Field: name, Message: message})
}

func (f *fields) failed(name string) bool {
	for _, fe := range f.errs {
		if fe.Field == name {
			return true
		}
	}
	return false
}

// merge folds a Validate result into f, skipping fields already reported.
func (f *fields) merge(err error) {
	var verrs types.ValidationErrors
	if !errors.As(err, &verrs) {
		return
	}
	for _, fe := range verrs {
		if !f.failed(fe.Field) {
			f.errs = append(f.errs, fe)
		}
	}
}

func (f *fields) err() error {
	return f.errs.Err()
}

func field[T any](f *fields, name string) (T, presence) {
	var v T
	raw, ok := f.raw[name]
	if !ok {
		return v, absent
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return v, null
	}
	if err := sonic.ConfigStd.Unmarshal(raw, &v); err != nil {
		f.fail(name, "has the wrong type")
		return v, invalid
	}
	return v, given
}

// required reads a member that must be present and not null.
func required[T any](f *fields, name string) T {
	v, p := field[T](f, name)
	switch p {
	case absent:
		f.errs = append(f.errs, types.Missing(name))
	case null:
		f.errs = append(f.errs, types.NotNull(name))
	}
	return v
}

// optional reads a member that may be absent but not null.
func optional[T any](f *fields, name string) types.Optional[T] {
	v, p := field[T](f, name)
	switch p {
	case null:
		f.errs = append(f.errs, types.NotNull(name))
	case given:
		return types.Some(v)
	}
	return types.Optional[T]{}
}

// nullable reads a member that may be absent, null or a value. A null
// yields a supplied nil.
func nullable[T any](f *fields, name string) types.Optional[*T] {
	v, p := field[T](f, name)
	switch p {
	case null:
		return types.Some[*T](nil)
	case given:
		return types.Some(&v)
	}
	return types.Optional[*T]{}
}

// nullableDate reads a due date given as an RFC 3339 timestamp or a
// calendar date.
func nullableDate(f *fields, name string) types.Optional[*time.Time] {
	s := nullable[string](f, name)
	if !s.Set || s.Value == nil {
		return types.Optional[*time.Time]{Value: nil, Set: s.Set}
	}
	t, err := parseDate(*s.Value)
	if err != nil {
		f.fail(name, "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		return types.Optional[*time.Time]{}
	}
	return types.Some(&t)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

// sonicSerializer makes echo encode and decode with sonic.
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i any) error {
	if err := readJSON(c, i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body").SetInternal(err)
	}
	return nil
}

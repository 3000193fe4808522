package state

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	wperrors "github.com/mrz1836/waypoint/internal/errors"
)

// Segment is one step of a FieldPath: a JSON field name or a list index.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// String renders the segment as it appears in a dotted path.
func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Name
}

// FieldPath addresses a value inside a document by JSON field names and
// list indexes, e.g. "progress.tasks_completed.0".
type FieldPath []Segment

// ParsePath splits a dotted path into segments. All-digit segments are
// list indexes.
func ParsePath(path string) (FieldPath, error) {
	if path == "" {
		return nil, &PathError{Path: path, Err: wperrors.ErrInvalidPath, Reason: "empty path"}
	}

	parts := strings.Split(path, ".")
	fp := make(FieldPath, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, &PathError{Path: path, Err: wperrors.ErrInvalidPath, Reason: "empty segment"}
		}
		if isDigits(part) {
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, &PathError{Path: path, Segment: part, Err: wperrors.ErrInvalidPath, Reason: "index out of range"}
			}
			fp = append(fp, Segment{Index: n, IsIndex: true})
			continue
		}
		fp = append(fp, Segment{Name: part})
	}
	return fp, nil
}

// String renders the path in dotted form.
func (p FieldPath) String() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = seg.String()
	}
	return strings.Join(parts, ".")
}

// PathError describes a field path that could not be resolved or assigned.
// It always matches ErrInvalidPath; type mismatches also match ErrTypeMismatch.
type PathError struct {
	Path    string
	Segment string
	Reason  string
	Err     error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Err, e.Path)
	if e.Segment != "" {
		msg += fmt.Sprintf(" (at %q)", e.Segment)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap returns the sentinel errors the PathError matches.
func (e *PathError) Unwrap() []error {
	if e.Err == wperrors.ErrInvalidPath { //nolint:errorlint // identity check on our own sentinel
		return []error{e.Err}
	}
	return []error{wperrors.ErrInvalidPath, e.Err}
}

// FieldValue is the set of value types a field update may carry.
type FieldValue interface {
	~string | ~int | ~float64 | ~bool | ~[]string
}

// FieldUpdate assigns Value to the field at Path.
type FieldUpdate struct {
	Path  string
	Value any
}

// Set builds a FieldUpdate.
func Set[T FieldValue](path string, value T) FieldUpdate {
	return FieldUpdate{Path: path, Value: value}
}

// Lookup returns the value at path inside doc, which must be a pointer to a
// document struct.
func Lookup(doc any, path string) (any, error) {
	target, err := resolve(doc, path)
	if err != nil {
		return nil, err
	}
	return target.Interface(), nil
}

// ParseFieldUpdate builds a FieldUpdate from a command-line string, coercing
// raw to the kind of the field at path in doc. Lists accept a JSON array or
// a comma-separated string.
func ParseFieldUpdate(doc any, path, raw string) (FieldUpdate, error) {
	target, err := resolve(doc, path)
	if err != nil {
		return FieldUpdate{}, err
	}

	mismatch := func(reason string) error {
		return &PathError{Path: path, Err: wperrors.ErrTypeMismatch, Reason: reason}
	}

	switch target.Kind() {
	case reflect.String:
		return FieldUpdate{Path: path, Value: raw}, nil
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return FieldUpdate{}, mismatch(fmt.Sprintf("%q is not an integer", raw))
		}
		return FieldUpdate{Path: path, Value: n}, nil
	case reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return FieldUpdate{}, mismatch(fmt.Sprintf("%q is not a number", raw))
		}
		return FieldUpdate{Path: path, Value: f}, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return FieldUpdate{}, mismatch(fmt.Sprintf("%q is not a boolean", raw))
		}
		return FieldUpdate{Path: path, Value: b}, nil
	case reflect.Slice:
		if target.Type().Elem().Kind() != reflect.String {
			break
		}
		list, err := parseStringList(raw)
		if err != nil {
			return FieldUpdate{}, mismatch(err.Error())
		}
		return FieldUpdate{Path: path, Value: list}, nil
	}
	return FieldUpdate{}, mismatch("field of type " + target.Type().String() + " cannot be set from the command line")
}

// apply assigns u.Value to the field u.Path inside doc.
func apply(doc any, u FieldUpdate) error {
	target, err := resolve(doc, u.Path)
	if err != nil {
		return err
	}
	if !target.CanSet() {
		return &PathError{Path: u.Path, Err: wperrors.ErrInvalidPath, Reason: "field is not settable"}
	}

	value := reflect.ValueOf(u.Value)
	if !value.IsValid() || !assignable(value.Type(), target.Type()) {
		got := "nil"
		if value.IsValid() {
			got = value.Type().String()
		}
		return &PathError{
			Path:   u.Path,
			Err:    wperrors.ErrTypeMismatch,
			Reason: fmt.Sprintf("cannot assign %s to %s", got, target.Type()),
		}
	}

	if value.Kind() == reflect.Slice {
		value = reflect.ValueOf(slices.Clone(value.Convert(reflect.TypeFor[[]string]()).Interface().([]string)))
	}
	target.Set(value.Convert(target.Type()))
	return nil
}

// assignable reports whether a value of type from may be stored in a field
// of type to. Kinds must match, except that an int may fill a float field.
func assignable(from, to reflect.Type) bool {
	switch to.Kind() {
	case reflect.String, reflect.Int, reflect.Bool:
		return from.Kind() == to.Kind()
	case reflect.Float64:
		return from.Kind() == reflect.Float64 || from.Kind() == reflect.Int
	case reflect.Slice:
		return from.Kind() == reflect.Slice &&
			from.Elem().Kind() == reflect.String &&
			to.Elem().Kind() == reflect.String
	default:
		return false
	}
}

// resolve walks path through doc and returns the addressed value.
func resolve(doc any, path string) (reflect.Value, error) {
	fp, err := ParsePath(path)
	if err != nil {
		return reflect.Value{}, err
	}

	v := reflect.ValueOf(doc)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return reflect.Value{}, &PathError{Path: path, Err: wperrors.ErrInvalidPath, Reason: "document is nil"}
	}

	for i, seg := range fp {
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, &PathError{
					Path:    path,
					Segment: fp[:i].String(),
					Err:     wperrors.ErrInvalidPath,
					Reason:  "section is missing",
				}
			}
			v = v.Elem()
		}

		if seg.IsIndex {
			if v.Kind() != reflect.Slice {
				return reflect.Value{}, &PathError{Path: path, Segment: seg.String(), Err: wperrors.ErrInvalidPath, Reason: "not a list"}
			}
			if seg.Index >= v.Len() {
				return reflect.Value{}, &PathError{
					Path:    path,
					Segment: seg.String(),
					Err:     wperrors.ErrInvalidPath,
					Reason:  fmt.Sprintf("index out of range (length %d)", v.Len()),
				}
			}
			v = v.Index(seg.Index)
			continue
		}

		if v.Kind() != reflect.Struct {
			return reflect.Value{}, &PathError{Path: path, Segment: seg.Name, Err: wperrors.ErrInvalidPath, Reason: "not an object"}
		}
		field, ok := fieldByJSONName(v, seg.Name)
		if !ok {
			return reflect.Value{}, &PathError{Path: path, Segment: seg.Name, Err: wperrors.ErrInvalidPath, Reason: "unknown field"}
		}
		v = field
	}
	return v, nil
}

// fieldByJSONName finds the struct field whose json tag name is name.
func fieldByJSONName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("json")
		if tagName, _, _ := strings.Cut(tag, ","); tagName == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func parseStringList(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
			return nil, fmt.Errorf("%q is not a JSON string array", raw)
		}
		if list == nil {
			list = []string{}
		}
		return list, nil
	}
	parts := strings.Split(trimmed, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

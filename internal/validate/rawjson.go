package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mrz1836/waypoint/internal/domain"
)

// typeRule overrides the generic type finding for one field. Paths use "*"
// for list indexes. Advisory rules report a warning instead of an error.
type typeRule struct {
	required bool
	advisory bool
	message  func(indexes []string) string
}

//nolint:gochecknoglobals // Fixed rule tables
var (
	sessionTypeRules = map[string]typeRule{
		"progress.tasks_completed":          fixedRule(true, "progress.tasks_completed must be an array"),
		"progress.tasks_total":              fixedRule(true, "progress.tasks_total must be a number"),
		"progress.completion_percentage":    fixedRule(true, "progress.completion_percentage must be a number"),
		"git_state.local_commits_ahead":     fixedRule(true, "git_state.local_commits_ahead must be a non-negative number"),
		"git_state.remote_commits_ahead":    fixedRule(true, "git_state.remote_commits_ahead must be a non-negative number"),
		"git_state.modified_files":          fixedRule(true, "git_state.modified_files must be a non-negative number"),
		"git_state.untracked_files":         fixedRule(true, "git_state.untracked_files must be a non-negative number"),
		"git_state.staged_files":            fixedRule(true, "git_state.staged_files must be a non-negative number"),
		"git_state.working_directory_clean": fixedRule(true, "git_state.working_directory_clean must be a boolean"),
	}

	progressTypeRules = map[string]typeRule{
		"phases": fixedRule(true, "phases must be an array"),
		"phases.*.tasks": {required: true, message: func(idx []string) string {
			return fmt.Sprintf("Phase %s: tasks must be an array", idx[0])
		}},
		"phases.*.completion_percentage": {advisory: true, message: func(idx []string) string {
			return fmt.Sprintf("Phase %s: completion_percentage should be a number", idx[0])
		}},
		"summary.total_phases":       advisoryRule("summary.total_phases does not match phases array length"),
		"summary.completed_phases":   advisoryRule("summary.completed_phases should be a number"),
		"summary.overall_completion": advisoryRule("summary.overall_completion should be a number"),
	}

	checkpointsTypeRules = map[string]typeRule{
		"checkpoints": fixedRule(true, "checkpoints must be an array"),
	}
)

func fixedRule(required bool, msg string) typeRule {
	return typeRule{required: required, message: func([]string) string { return msg }}
}

func advisoryRule(msg string) typeRule {
	return typeRule{advisory: true, message: func([]string) string { return msg }}
}

// SessionStateJSON validates raw session state bytes. Fields whose JSON
// type does not fit the schema, and required typed fields that are absent,
// are reported as validation errors. Only malformed JSON returns an error.
func (v *Validator) SessionStateJSON(data []byte) (Result, error) {
	var doc domain.SessionState
	typeFindings, err := decodeLenient(data, &doc, sessionTypeRules)
	if err != nil {
		return Result{}, err
	}
	r := v.SessionState(&doc)
	r.mergeUnique(typeFindings)
	return r, nil
}

// IsStateSafeJSON is IsStateSafe over raw session state bytes. Absent or
// mistyped counters count against validity instead of reading as zero.
func (v *Validator) IsStateSafeJSON(data []byte) (bool, error) {
	r, err := v.SessionStateJSON(data)
	if err != nil {
		return false, err
	}
	if !r.Valid {
		return false, nil
	}
	var doc domain.SessionState
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, err
	}
	return doc.GitState != nil && doc.GitState.WorkingDirectoryClean, nil
}

// ProgressJSON validates raw progress bytes. See SessionStateJSON.
func (v *Validator) ProgressJSON(data []byte) (Result, error) {
	var doc domain.ProgressData
	typeFindings, err := decodeLenient(data, &doc, progressTypeRules)
	if err != nil {
		return Result{}, err
	}
	r := v.Progress(&doc)
	r.mergeUnique(typeFindings)
	return r, nil
}

// CheckpointsJSON validates raw checkpoint history bytes. See SessionStateJSON.
func (v *Validator) CheckpointsJSON(data []byte) (Result, error) {
	var doc domain.CheckpointsData
	typeFindings, err := decodeLenient(data, &doc, checkpointsTypeRules)
	if err != nil {
		return Result{}, err
	}
	r := v.Checkpoints(&doc)
	r.mergeUnique(typeFindings)
	return r, nil
}

// decodeLenient decodes data into target, tolerating field type mismatches,
// and returns one finding per mismatched or missing typed field.
func decodeLenient(data []byte, target any, rules map[string]typeRule) (Result, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result{}, err
	}

	// json.Unmarshal fills every field it can and reports only the first
	// type mismatch, which the walk below reports in full.
	if err := json.Unmarshal(data, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return Result{}, err
		}
	}

	r := newResult()
	w := typeWalker{rules: rules, result: &r}
	w.walk(raw, reflect.TypeOf(target).Elem(), nil)
	return r, nil
}

type typeWalker struct {
	rules  map[string]typeRule
	result *Result
}

// walk compares a decoded JSON value with the Go type it must fit.
// segs is the path so far; index segments are kept as digits.
func (w *typeWalker) walk(raw any, t reflect.Type, segs []string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		obj, ok := raw.(map[string]any)
		if !ok {
			if raw != nil || len(segs) == 0 {
				w.report(segs, "an object")
			}
			return
		}
		for i := range t.NumField() {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			if name == "" || name == "-" {
				continue
			}
			child := append(segs[:len(segs):len(segs)], name)
			value, present := obj[name]
			if !present {
				if rule, ok := w.rule(child); ok && rule.required {
					w.report(child, "")
				}
				continue
			}
			w.walk(value, t.Field(i).Type, child)
		}
	case reflect.Slice:
		list, ok := raw.([]any)
		if !ok {
			w.report(segs, "an array")
			return
		}
		for i, item := range list {
			w.walk(item, t.Elem(), append(segs[:len(segs):len(segs)], strconv.Itoa(i)))
		}
	case reflect.String:
		if _, ok := raw.(string); !ok && raw != nil {
			w.report(segs, "a string")
		}
	case reflect.Int:
		if n, ok := raw.(float64); !ok || n != math.Trunc(n) {
			w.report(segs, "an integer")
		}
	case reflect.Float64:
		if _, ok := raw.(float64); !ok {
			w.report(segs, "a number")
		}
	case reflect.Bool:
		if _, ok := raw.(bool); !ok {
			w.report(segs, "a boolean")
		}
	default:
	}
}

// rule finds the override for a concrete path, matching indexes against "*".
func (w *typeWalker) rule(segs []string) (typeRule, bool) {
	pattern := make([]string, len(segs))
	for i, s := range segs {
		if isIndex(s) {
			pattern[i] = "*"
		} else {
			pattern[i] = s
		}
	}
	rule, ok := w.rules[strings.Join(pattern, ".")]
	return rule, ok
}

func (w *typeWalker) report(segs []string, want string) {
	if rule, ok := w.rule(segs); ok {
		var indexes []string
		for _, s := range segs {
			if isIndex(s) {
				indexes = append(indexes, s)
			}
		}
		if rule.advisory {
			w.result.warnf("%s", rule.message(indexes))
		} else {
			w.result.errorf("%s", rule.message(indexes))
		}
		return
	}
	if len(segs) == 0 {
		w.result.errorf("document must be %s", want)
		return
	}
	w.result.errorf("%s must be %s", strings.Join(segs, "."), want)
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ConsistencyJSON is Consistency over raw documents. A nil progress or
// checkpoints slice skips that document. Type findings from every document
// are merged after the semantic findings.
func (v *Validator) ConsistencyJSON(session, progress, checkpoints []byte) (Result, error) {
	types := newResult()

	var sessionDoc domain.SessionState
	found, err := decodeLenient(session, &sessionDoc, sessionTypeRules)
	if err != nil {
		return Result{}, fmt.Errorf("session state: %w", err)
	}
	types.merge(found)

	var progressDoc *domain.ProgressData
	if progress != nil {
		progressDoc = &domain.ProgressData{}
		if found, err = decodeLenient(progress, progressDoc, progressTypeRules); err != nil {
			return Result{}, fmt.Errorf("progress: %w", err)
		}
		types.merge(found)
	}

	var checkpointsDoc *domain.CheckpointsData
	if checkpoints != nil {
		checkpointsDoc = &domain.CheckpointsData{}
		if found, err = decodeLenient(checkpoints, checkpointsDoc, checkpointsTypeRules); err != nil {
			return Result{}, fmt.Errorf("checkpoints: %w", err)
		}
		types.merge(found)
	}

	r := v.Consistency(&sessionDoc, progressDoc, checkpointsDoc)
	r.mergeUnique(types)
	return r, nil
}

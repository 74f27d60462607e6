// Package query evaluates JSONPath expressions over stored run reports.
package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/aalvaropc/readprep/internal/domain"
)

// Eval applies expr to the JSON document and renders the result: strings
// and numbers as-is, everything else as indented JSON.
func Eval(doc []byte, expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", fail(expr, fmt.Errorf("empty jsonpath expression"))
	}

	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return "", &domain.OpError{Op: "query.eval", Kind: domain.KindDecode, Err: err}
	}

	val, err := jsonpath.Get(expr, v)
	if err != nil {
		return "", fail(expr, err)
	}
	if isEmptyValue(val) {
		return "", &domain.OpError{Op: "query.eval", Kind: domain.KindNotFound,
			Err: fmt.Errorf("%s: no value found: %w", expr, domain.ErrNotFound)}
	}
	return toString(val)
}

func fail(expr string, err error) error {
	return &domain.OpError{Op: "query.eval", Kind: domain.KindInvalidConfig,
		Err: fmt.Errorf("%s: %w", expr, err)}
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

func toString(v any) (string, error) {
	// Wildcards yield a slice; a single match prints as a scalar.
	if arr, ok := v.([]any); ok && len(arr) == 1 {
		return toString(arr[0])
	}

	switch t := v.(type) {
	case string:
		return t, nil
	case float64, bool, int, int64:
		return fmt.Sprint(t), nil
	default:
		b, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

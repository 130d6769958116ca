package tools

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Arguments is the untyped argument bag of one invocation. Keys a tool does not
// document are ignored.
type Arguments map[string]any

// ParseArguments decodes a JSON object. Empty input yields an empty bag.
func ParseArguments(raw json.RawMessage) (Arguments, error) {
	args := Arguments{}
	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// String returns the argument as text. Numbers and booleans use their canonical
// form. A missing argument yields "" so it still lands in the request path.
func (a Arguments) String(key string) string {
	s, _ := a.text(key)
	return s
}

// OptString returns nil when the argument is absent or null.
func (a Arguments) OptString(key string) *string {
	s, ok := a.text(key)
	if !ok {
		return nil
	}
	return &s
}

// OptInt accepts JSON numbers and numeric strings. Fractions are truncated.
func (a Arguments) OptInt(key string) *int {
	var n int
	switch v := a[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		n = int(v)
	case int:
		n = v
	case int64:
		n = int(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		n = int(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		n = int(f)
	default:
		return nil
	}
	return &n
}

// OptBool accepts JSON booleans and strconv.ParseBool strings.
func (a Arguments) OptBool(key string) *bool {
	var b bool
	switch v := a[key].(type) {
	case bool:
		b = v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		b = parsed
	default:
		return nil
	}
	return &b
}

func (a Arguments) text(key string) (string, bool) {
	switch v := a[key].(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

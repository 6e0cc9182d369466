package argparse

import (
	"time"
)

// Result is the ordered mapping produced by a successful parse. Values are
// scalars, []any lists, or a nested *Result for the command invoked at a
// level.
type Result struct {
	keys   []string
	values map[string]any
}

func newResult() *Result {
	return &Result{values: make(map[string]any)}
}

func (r *Result) set(key string, v any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Keys returns the destination keys in declaration order, followed by
// CommandKey and the invoked command's key when the level has commands.
func (r *Result) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of keys.
func (r *Result) Len() int {
	return len(r.keys)
}

// Get returns the raw value stored under key.
func (r *Result) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Result) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Command returns the destination of the command invoked at this level, or
// "" when none was given.
func (r *Result) Command() string {
	s, _ := r.values[CommandKey].(string)
	return s
}

// Sub returns the nested result of the command stored under key, or nil.
func (r *Result) Sub(key string) *Result {
	sub, _ := r.values[key].(*Result)
	return sub
}

// Map flattens the result into plain maps, converting nested results
// recursively.
func (r *Result) Map() map[string]any {
	out := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		v := r.values[k]
		if sub, ok := v.(*Result); ok {
			out[k] = sub.Map()
			continue
		}
		out[k] = v
	}
	return out
}

// GetString retrieves a string value (safe access)
func (r *Result) GetString(key string) (string, bool) {
	v, ok := r.values[key].(string)
	return v, ok
}

// MustGetString retrieves a string value with default fallback
func (r *Result) MustGetString(key, defaultValue string) string {
	if v, ok := r.GetString(key); ok {
		return v
	}
	return defaultValue
}

// GetInt retrieves an int value (safe access)
func (r *Result) GetInt(key string) (int, bool) {
	switch v := r.values[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// MustGetInt retrieves an int value with default fallback
func (r *Result) MustGetInt(key string, defaultValue int) int {
	if v, ok := r.GetInt(key); ok {
		return v
	}
	return defaultValue
}

// GetBool retrieves a bool value (safe access)
func (r *Result) GetBool(key string) (bool, bool) {
	v, ok := r.values[key].(bool)
	return v, ok
}

// MustGetBool retrieves a bool value with default fallback
func (r *Result) MustGetBool(key string, defaultValue bool) bool {
	if v, ok := r.GetBool(key); ok {
		return v
	}
	return defaultValue
}

// GetFloat retrieves a float64 value (safe access)
func (r *Result) GetFloat(key string) (float64, bool) {
	v, ok := r.values[key].(float64)
	return v, ok
}

// MustGetFloat retrieves a float64 value with default fallback
func (r *Result) MustGetFloat(key string, defaultValue float64) float64 {
	if v, ok := r.GetFloat(key); ok {
		return v
	}
	return defaultValue
}

// GetDuration retrieves a duration value (safe access)
func (r *Result) GetDuration(key string) (time.Duration, bool) {
	v, ok := r.values[key].(time.Duration)
	return v, ok
}

// MustGetDuration retrieves a duration value with default fallback
func (r *Result) MustGetDuration(key string, defaultValue time.Duration) time.Duration {
	if v, ok := r.GetDuration(key); ok {
		return v
	}
	return defaultValue
}

// GetList retrieves a list value (safe access)
func (r *Result) GetList(key string) ([]any, bool) {
	v, ok := r.values[key].([]any)
	return v, ok
}

// GetStringSlice retrieves a list whose items are all strings
func (r *Result) GetStringSlice(key string) ([]string, bool) {
	list, ok := r.GetList(key)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// MustGetStringSlice retrieves a string list with default fallback
func (r *Result) MustGetStringSlice(key string, defaultValue []string) []string {
	if v, ok := r.GetStringSlice(key); ok {
		return v
	}
	return defaultValue
}

// GetIntSlice retrieves a list whose items are all ints
func (r *Result) GetIntSlice(key string) ([]int, bool) {
	list, ok := r.GetList(key)
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		n, ok := item.(int)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// MustGetIntSlice retrieves an int list with default fallback
func (r *Result) MustGetIntSlice(key string, defaultValue []int) []int {
	if v, ok := r.GetIntSlice(key); ok {
		return v
	}
	return defaultValue
}

package argparse

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Converter turns a raw token into a typed value. Conversion hooks are looked
// up by the entry's ArgType; errors become TypeConversionFailure.
type Converter func(string) (any, error)

// Built-in type identifiers.
const (
	TypeString   = "string"
	TypeInt      = "int"
	TypeInt64    = "int64"
	TypeUint     = "uint"
	TypeFloat64  = "float64"
	TypeBool     = "bool"
	TypeDuration = "duration"
)

var builtinTypes = map[string]Converter{
	TypeString: func(s string) (any, error) { return s, nil },
	TypeInt: func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 0, strconv.IntSize)
		if err != nil {
			return nil, err
		}
		return int(v), nil
	},
	TypeInt64: func(s string) (any, error) {
		return strconv.ParseInt(s, 0, 64)
	},
	TypeUint: func(s string) (any, error) {
		v, err := strconv.ParseUint(s, 0, strconv.IntSize)
		if err != nil {
			return nil, err
		}
		return uint(v), nil
	},
	TypeFloat64: func(s string) (any, error) {
		return strconv.ParseFloat(s, 64)
	},
	TypeBool: func(s string) (any, error) {
		return strconv.ParseBool(s)
	},
	TypeDuration: func(s string) (any, error) {
		return time.ParseDuration(s)
	},
}

// RegisterType installs a conversion hook for name on this node. Command
// nodes created afterwards inherit a copy of the registry.
func (s *Settings) RegisterType(name string, fn Converter) {
	if s.types == nil {
		s.types = make(map[string]Converter)
	}
	s.types[name] = fn
}

// converter resolves a type identifier against this node, then the built-ins.
func (s *Settings) converter(name string) (Converter, bool) {
	if name == "" {
		name = TypeString
	}
	if fn, ok := s.types[name]; ok {
		return fn, true
	}
	fn, ok := builtinTypes[name]
	return fn, ok
}

// Convert runs the hook registered for typ ("" means string) on raw.
func (s *Settings) Convert(typ, raw string) (any, error) {
	fn, ok := s.converter(typ)
	if !ok {
		return nil, fmt.Errorf("unknown arg type %q", typ)
	}
	return fn(raw)
}

// normalizeValue checks a declared default or constant against the entry's
// type. String values given for a non-string type are converted through the
// hook; other values are kept as declared. List values of append or multi
// nargs entries are checked element by element and come back as []any.
func (s *Settings) normalizeValue(e *entry, v any) (any, error) {
	depth := 0
	if e.Action.class() == "append" {
		depth++
	}
	if e.Nargs.multi() {
		depth++
	}
	return s.normalizeNested(e, v, depth)
}

func (s *Settings) normalizeNested(e *entry, v any, depth int) (any, error) {
	if v == nil {
		return nil, nil
	}
	if depth > 0 {
		if items, ok := listItems(v); ok {
			out := make([]any, len(items))
			for i, item := range items {
				conv, err := s.normalizeNested(e, item, depth-1)
				if err != nil {
					return nil, err
				}
				out[i] = conv
			}
			return out, nil
		}
	}
	if str, ok := v.(string); ok && e.ArgType != "" && e.ArgType != TypeString {
		fn, _ := s.converter(e.ArgType)
		conv, err := fn(str)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a valid %s: %w", str, e.ArgType, err)
		}
		v = conv
	}
	if e.RangeTester != nil && !e.Action.isFlag() && !e.RangeTester(v) {
		return nil, fmt.Errorf("value %v fails the range test", v)
	}
	return v, nil
}

// listItems returns the elements of any slice value.
func listItems(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func cloneTypes(src map[string]Converter) map[string]Converter {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]Converter, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

package domain

import (
	"fmt"
	"reflect"
	"strings"
)

// Field is one flattened key of an element.
type Field struct {
	Key   string
	Value any
}

// FieldList is an ordered flattening of an element. Keys of nested models are
// joined with "_", so the magnetic length becomes "magnetic_length".
type FieldList []Field

// Get returns the value stored under key.
func (l FieldList) Get(key string) (any, bool) {
	for _, f := range l {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of key, appending it when missing.
func (l *FieldList) Set(key string, value any) {
	for i := range *l {
		if (*l)[i].Key == key {
			(*l)[i].Value = value
			return
		}
	}
	*l = append(*l, Field{Key: key, Value: value})
}

// Keys returns the keys in order.
func (l FieldList) Keys() []string {
	keys := make([]string, len(l))
	for i, f := range l {
		keys[i] = f.Key
	}
	return keys
}

// Map returns the fields as a map, losing the order.
func (l FieldList) Map() map[string]any {
	out := make(map[string]any, len(l))
	for _, f := range l {
		out[f.Key] = f.Value
	}
	return out
}

// Fields flattens the element in declaration order. Unset sub-models are
// skipped, edge angles keep their expression and field definitions collapse
// to the file name. The opaque controls map is not included.
func (e *Element) Fields() FieldList {
	var out FieldList
	flatten(reflect.ValueOf(e).Elem(), "", &out)
	return out
}

func flatten(v reflect.Value, prefix string, out *FieldList) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := jsonName(sf)
		if name == "" || name == "controls" {
			continue
		}
		flattenValue(v.Field(i), prefix+name, out)
	}
}

func flattenValue(fv reflect.Value, key string, out *FieldList) {
	switch {
	case fv.Type() == reflect.PointerTo(fieldDefType):
		if !fv.IsNil() {
			*out = append(*out, Field{Key: key, Value: fv.Interface().(*FieldDefinition).Filename})
		}
		return
	case fv.Type() == edgeAngleType:
		ea := fv.Interface().(EdgeAngle)
		if ea.Expr != "" {
			*out = append(*out, Field{Key: key, Value: ea.Expr})
		} else {
			*out = append(*out, Field{Key: key, Value: ea.Value})
		}
		return
	}

	switch fv.Kind() {
	case reflect.Ptr:
		if fv.IsNil() {
			return
		}
		flattenValue(fv.Elem(), key, out)
	case reflect.Struct:
		flatten(fv, key+"_", out)
	case reflect.Map:
		if mp, ok := fv.Interface().(Multipoles); ok {
			for _, order := range mp.Orders() {
				m := mp[order]
				base := fmt.Sprintf("%s_K%dL_", key, order)
				*out = append(*out,
					Field{Key: base + "normal", Value: m.Normal},
					Field{Key: base + "skew", Value: m.Skew},
				)
			}
		}
	default:
		*out = append(*out, Field{Key: key, Value: fv.Interface()})
	}
}

func jsonName(sf reflect.StructField) string {
	if !sf.IsExported() {
		return ""
	}
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}

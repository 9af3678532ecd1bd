// Package serialize turns typed CloudFormation resources into property maps.
//
// Property names come from json tags. Nil pointers and empty lists or maps
// never produce a property; other zero values are dropped only for omitempty
// fields, so required properties such as a NetworkAclEntry's Egress=false
// survive. Intrinsics and any other json.Marshaler are embedded as their
// decoded JSON, which is what the template builder scans for references.
package serialize

import (
	"encoding/json"
	"reflect"
	"strings"
	"unicode"
)

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// Resource serializes a typed resource struct, or a pointer to one, into
// CloudFormation properties. Anything else yields a nil map.
func Resource(v any) (map[string]any, error) {
	val := reflect.Indirect(reflect.ValueOf(v))
	if val.Kind() != reflect.Struct {
		return nil, nil
	}
	return properties(val)
}

func properties(val reflect.Value) (map[string]any, error) {
	typ := val.Type()
	props := make(map[string]any, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty := tagName(field)
		if name == "-" {
			continue
		}
		fv := val.Field(i)
		if absent(fv) || (omitEmpty && fv.IsZero()) {
			continue
		}
		out, err := value(fv)
		if err != nil {
			return nil, err
		}
		if out != nil {
			props[name] = out
		}
	}
	return props, nil
}

func tagName(field reflect.StructField) (name string, omitEmpty bool) {
	name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" {
		name = field.Name
	}
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty
}

// absent reports values that never produce a property.
func absent(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	}
	return false
}

func value(v reflect.Value) (any, error) {
	if !v.IsValid() || absent(v) {
		return nil, nil
	}
	if v.Type().Implements(marshalerType) && v.CanInterface() {
		return decoded(v.Interface())
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return value(v.Elem())
	case reflect.Struct:
		return properties(v)
	case reflect.Slice, reflect.Array:
		list := make([]any, v.Len())
		for i := range list {
			item, err := value(v.Index(i))
			if err != nil {
				return nil, err
			}
			list[i] = item
		}
		return list, nil
	case reflect.Map:
		m := make(map[string]any, v.Len())
		for iter := v.MapRange(); iter.Next(); {
			item, err := value(iter.Value())
			if err != nil {
				return nil, err
			}
			m[iter.Key().String()] = item
		}
		return m, nil
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	}
	return decoded(v.Interface())
}

// decoded round-trips v through JSON.
func decoded(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToPascalCase drops separators and capitalizes each word:
// "cdk_ec2_elb_pub" → "CdkEc2ElbPub".
func ToPascalCase(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LogicalID joins name parts into an alphanumeric logical ID:
// LogicalID("cdk_ec2_web_priv", "Subnet", "2") → "CdkEc2WebPrivSubnet2".
func LogicalID(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(ToPascalCase(p))
	}
	return b.String()
}

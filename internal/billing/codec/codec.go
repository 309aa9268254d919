// Package codec serializes billing payloads with field-group filtering. A
// struct field tagged `groups:"anon,owned"` is only visible in those groups;
// untagged fields are visible everywhere.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

type Group string

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

const (
	// GroupAll disables filtering.
	GroupAll   Group = ""
	GroupAnon  Group = "anon"
	GroupOwned Group = "owned"
	GroupReg   Group = "reg"
	GroupAuth  Group = "auth"
)

// Encode marshals v keeping only the fields visible in group.
func Encode(v interface{}, group Group) ([]byte, error) {
	if group == GroupAll {
		return json.Marshal(v)
	}
	var buf bytes.Buffer
	if err := encodeValue(&buf, reflect.ValueOf(v), group); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode unmarshals data into out and zeroes every field not visible in
// group, so a value never carries data outside its group.
func Decode(data []byte, out interface{}, group Group) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("codec: decode target must be a non-nil pointer, got %T", out)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	if group != GroupAll {
		scrub(rv.Elem(), group)
	}
	return nil
}

// Visible reports whether a field with the given groups tag is part of group.
func Visible(tag string, group Group) bool {
	if group == GroupAll || strings.TrimSpace(tag) == "" {
		return true
	}
	for _, g := range strings.Split(tag, ",") {
		if Group(strings.TrimSpace(g)) == group {
			return true
		}
	}
	return false
}

func encodeValue(buf *bytes.Buffer, rv reflect.Value, group Group) error {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if rv.Type().Implements(marshalerType) {
			return marshalInto(buf, rv.Interface())
		}
		if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(marshalerType) {
			return marshalInto(buf, rv.Addr().Interface())
		}
		return encodeStruct(buf, rv, group)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, rv.Index(i), group); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		return marshalInto(buf, rv.Interface())
	}
}

func encodeStruct(buf *bytes.Buffer, rv reflect.Value, group Group) error {
	rt := rv.Type()
	buf.WriteByte('{')
	first := true
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() || !Visible(field.Tag.Get("groups"), group) {
			continue
		}
		name, omitEmpty, skip := jsonName(field)
		if skip {
			continue
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := marshalInto(buf, name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(buf, fv, group); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func marshalInto(buf *bytes.Buffer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func jsonName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = field.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func scrub(rv reflect.Value, group Group) {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if !rv.IsNil() {
			scrub(rv.Elem(), group)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			scrub(rv.Index(i), group)
		}
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			fv := rv.Field(i)
			if !Visible(field.Tag.Get("groups"), group) {
				if fv.CanSet() {
					fv.Set(reflect.Zero(field.Type))
				}
				continue
			}
			scrub(fv, group)
		}
	}
}

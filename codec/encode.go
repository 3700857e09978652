package codec

import (
	"encoding"
	"encoding/json"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/argon2-bridge/errors"
)

// Terminator ends every encoded buffer.
const Terminator byte = 0

var textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

// Encode serializes v into a NUL-terminated JSON buffer.
//
// Permitted leaves are strings (valid UTF-8), booleans, integers, finite
// floats, byte sequences and encoding.TextMarshaler values. Structs follow
// their json tags; maps need string keys. Anything else fails with an
// errors.ErrEncoding error naming the field path.
func Encode(v any) ([]byte, error) {
	e := encoder{buf: make([]byte, 0, 256)}
	if err := e.value(reflect.ValueOf(v), nil); err != nil {
		return nil, err
	}
	return append(e.buf, Terminator), nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) value(v reflect.Value, path []string) error {
	if !v.IsValid() {
		e.buf = append(e.buf, "null"...)
		return nil
	}

	if v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			e.buf = append(e.buf, "null"...)
			return nil
		}
		return e.value(v.Elem(), path)
	}

	if v.Type().Implements(textMarshalerType) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return errors.New(errors.PhaseEncode, errors.KindEncoding).
				Path(path...).
				GoType(v.Type().String()).
				Detail("marshal text").
				Cause(err).
				Build()
		}
		return e.text(string(text), path)
	}

	switch v.Kind() {
	case reflect.Bool:
		e.buf = strconv.AppendBool(e.buf, v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.buf = strconv.AppendInt(e.buf, v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		e.buf = strconv.AppendUint(e.buf, v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.Unsupported(path, v.Type().String(), "non-finite number")
		}
		e.buf = strconv.AppendFloat(e.buf, f, 'g', -1, v.Type().Bits())
	case reflect.String:
		return e.text(v.String(), path)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			e.bytes(v.Bytes())
			return nil
		}
		return e.list(v, path)
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			e.bytes(b)
			return nil
		}
		return e.list(v, path)
	case reflect.Map:
		return e.object(v, path)
	case reflect.Struct:
		return e.record(v, path)
	default:
		return errors.Unsupported(path, v.Type().String(), "unsupported value kind "+v.Kind().String())
	}
	return nil
}

func (e *encoder) text(s string, path []string) error {
	if !utf8.ValidString(s) {
		return errors.InvalidUTF8(path)
	}
	quoted, err := json.Marshal(s)
	if err != nil {
		return errors.Unsupported(path, "string", err.Error())
	}
	e.buf = append(e.buf, quoted...)
	return nil
}

func (e *encoder) bytes(b []byte) {
	e.buf = append(e.buf, '[')
	for i, c := range b {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.buf = strconv.AppendUint(e.buf, uint64(c), 10)
	}
	e.buf = append(e.buf, ']')
}

func (e *encoder) list(v reflect.Value, path []string) error {
	if v.Kind() == reflect.Slice && v.IsNil() {
		e.buf = append(e.buf, "null"...)
		return nil
	}
	e.buf = append(e.buf, '[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		if err := e.value(v.Index(i), append(path, strconv.Itoa(i))); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, ']')
	return nil
}

func (e *encoder) object(v reflect.Value, path []string) error {
	if v.Type().Key().Kind() != reflect.String {
		return errors.Unsupported(path, v.Type().String(), "map key must be a string")
	}
	if v.IsNil() {
		e.buf = append(e.buf, "null"...)
		return nil
	}
	keys := v.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return strings.Compare(a.String(), b.String())
	})
	e.buf = append(e.buf, '{')
	for i, k := range keys {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		if err := e.text(k.String(), path); err != nil {
			return err
		}
		e.buf = append(e.buf, ':')
		if err := e.value(v.MapIndex(k), append(path, k.String())); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, '}')
	return nil
}

func (e *encoder) record(v reflect.Value, path []string) error {
	t := v.Type()
	e.buf = append(e.buf, '{')
	first := true
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, omitEmpty, skip := fieldName(f)
		if skip {
			continue
		}
		fv := v.Field(i)
		if omitEmpty && isEmpty(fv) {
			continue
		}
		if !first {
			e.buf = append(e.buf, ',')
		}
		first = false
		if err := e.text(name, path); err != nil {
			return err
		}
		e.buf = append(e.buf, ':')
		if err := e.value(fv, append(path, name)); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, '}')
	return nil
}

func fieldName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	for opt := range strings.SplitSeq(opts, ",") {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

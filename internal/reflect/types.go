package reflect

import (
	"reflect"
	"strconv"
	"sync"
)

var keyCache sync.Map

// TypeKey returns the registry key for T: the fully qualified type, with
// interfaces keyed by their own type rather than a nil value.
func TypeKey[T any]() string {
	return keyOf(typeOf[T]())
}

// TypeKeyNamed returns the key for a named registration of T.
func TypeKeyNamed[T any](name string) string {
	if name == "" {
		return TypeKey[T]()
	}
	return TypeKey[T]() + "#" + name
}

// TypeKeyFromValue returns the key of the dynamic type of v.
func TypeKeyFromValue(v any) string {
	if v == nil {
		return "<nil>"
	}
	return keyOf(reflect.TypeOf(v))
}

// TypeName returns the short, package-qualified name of T used in logs.
func TypeName[T any]() string {
	return typeOf[T]().String()
}

// ValueName returns the short name of the dynamic type of v.
func ValueName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func keyOf(t reflect.Type) string {
	if cached, ok := keyCache.Load(t); ok {
		return cached.(string)
	}
	key := build(t)
	keyCache.Store(t, key)
	return key
}

func build(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + build(t.Elem())
	case reflect.Slice:
		return "[]" + build(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + build(t.Elem())
	case reflect.Map:
		return "map[" + build(t.Key()) + "]" + build(t.Elem())
	case reflect.Chan:
		switch t.ChanDir() {
		case reflect.RecvDir:
			return "<-chan " + build(t.Elem())
		case reflect.SendDir:
			return "chan<- " + build(t.Elem())
		default:
			return "chan " + build(t.Elem())
		}
	}
	if t.PkgPath() != "" && t.Name() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// IsNil reports whether v is nil or a typed nil.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

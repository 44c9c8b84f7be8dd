package scopehost

import (
	"context"

	"github.com/danpasecinic/scopehost/internal/reflect"
)

// Resolver is implemented by *Scope and by the root resolver handed to
// singleton providers.
type Resolver interface {
	Resolve(ctx context.Context, key string) (any, error)
	Has(key string) bool
}

type resolverAdapter struct {
	container *Container
}

func (r *resolverAdapter) Resolve(ctx context.Context, key string) (any, error) {
	return r.container.internal.Resolve(ctx, key)
}

func (r *resolverAdapter) Has(key string) bool {
	return r.container.internal.Has(key)
}

func Invoke[T any](ctx context.Context, r Resolver) (T, error) {
	return invoke[T](ctx, r, reflect.TypeKey[T](), reflect.TypeName[T]())
}

func InvokeNamed[T any](ctx context.Context, r Resolver, name string) (T, error) {
	return invoke[T](ctx, r, reflect.TypeKeyNamed[T](name), reflect.TypeName[T]()+"#"+name)
}

func invoke[T any](ctx context.Context, r Resolver, key, name string) (T, error) {
	var zero T

	instance, err := r.Resolve(ctx, key)
	if err != nil {
		return zero, resolutionError(name, err)
	}
	if instance == nil {
		return zero, nil
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, errTypeMismatch(name, instance)
	}
	return typed, nil
}

func MustInvoke[T any](ctx context.Context, r Resolver) T {
	v, err := Invoke[T](ctx, r)
	if err != nil {
		panic(err)
	}
	return v
}

func MustInvokeNamed[T any](ctx context.Context, r Resolver, name string) T {
	v, err := InvokeNamed[T](ctx, r, name)
	if err != nil {
		panic(err)
	}
	return v
}

func Has[T any](r Resolver) bool {
	return r.Has(reflect.TypeKey[T]())
}

func HasNamed[T any](r Resolver, name string) bool {
	return r.Has(reflect.TypeKeyNamed[T](name))
}

type Optional[T any] struct {
	value   T
	present bool
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

func (o Optional[T]) Value() T {
	return o.value
}

func (o Optional[T]) Present() bool {
	return o.present
}

func (o Optional[T]) OrElse(defaultValue T) T {
	if o.present {
		return o.value
	}
	return defaultValue
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// InvokeOptional resolves T when it is registered and resolvable.
func InvokeOptional[T any](ctx context.Context, r Resolver) Optional[T] {
	if !Has[T](r) {
		return None[T]()
	}

	v, err := Invoke[T](ctx, r)
	if err != nil {
		return None[T]()
	}
	return Some(v)
}

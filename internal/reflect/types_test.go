package reflect

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

type worker struct{}

type runner interface {
	Run(ctx context.Context) error
}

func TestTypeKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "int", TypeKey[int]())
	assert.Equal(t, "*github.com/danpasecinic/scopehost/internal/reflect.worker", TypeKey[*worker]())
	assert.Equal(t, "github.com/danpasecinic/scopehost/internal/reflect.runner", TypeKey[runner]())
	assert.Equal(t, "context.Context", TypeKey[context.Context]())
	assert.Equal(t, "[4]int", TypeKey[[4]int]())
	assert.Equal(t, "map[string][]int", TypeKey[map[string][]int]())
	assert.Equal(t, "<-chan int", TypeKey[<-chan int]())
}

func TestTypeKeyUnique(t *testing.T) {
	t.Parallel()

	keys := []string{
		TypeKey[worker](),
		TypeKey[*worker](),
		TypeKey[[]worker](),
		TypeKey[runner](),
		TypeKey[io.Closer](),
		TypeKeyNamed[worker]("primary"),
	}

	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func TestTypeKeyNamed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TypeKey[int]()+"#port", TypeKeyNamed[int]("port"))
	assert.Equal(t, TypeKey[int](), TypeKeyNamed[int](""))
}

func TestTypeKeyFromValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TypeKey[*worker](), TypeKeyFromValue(&worker{}))
	assert.Equal(t, "<nil>", TypeKeyFromValue(nil))
}

func TestNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "*reflect.worker", TypeName[*worker]())
	assert.Equal(t, "*reflect.worker", ValueName(&worker{}))
	assert.Equal(t, "<nil>", ValueName(nil))
}

func TestIsNil(t *testing.T) {
	t.Parallel()

	var p *worker
	var r runner

	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(p))
	assert.True(t, IsNil(r))
	assert.False(t, IsNil(&worker{}))
	assert.False(t, IsNil(0))
}

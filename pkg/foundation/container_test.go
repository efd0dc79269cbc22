package foundation

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n int }

func TestContainer_BindBuildsEveryTime(t *testing.T) {
	c := NewContainer()
	calls := 0
	c.Bind("counter", func(*Container) (interface{}, error) {
		calls++
		return &counter{n: calls}, nil
	})

	a, err := Resolve[*counter](c, "counter")
	require.NoError(t, err)
	b, err := Resolve[*counter](c, "counter")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, calls)
	assert.False(t, c.Resolved("counter"))
}

func TestContainer_SingletonBuildsOnce(t *testing.T) {
	c := NewContainer()
	var calls int32
	c.Singleton("counter", func(*Container) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return &counter{}, nil
	})

	var wg sync.WaitGroup
	results := make([]*counter, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Resolve[*counter](c, "counter")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.True(t, c.Resolved("counter"))
}

func TestContainer_SingletonResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Instance("name", "mediamind")
	c.Singleton("greeting", func(c *Container) (interface{}, error) {
		name, err := Resolve[string](c, "name")
		if err != nil {
			return nil, err
		}
		return "hello " + name, nil
	})

	greeting, err := Resolve[string](c, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello mediamind", greeting)
}

func TestContainer_Errors(t *testing.T) {
	c := NewContainer()

	_, err := c.Make("missing")
	assert.True(t, errors.Is(err, ErrNotBound))
	assert.Contains(t, err.Error(), "[missing]")

	c.Instance("number", 42)
	_, err = Resolve[string](c, "number")
	assert.Error(t, err)

	c.Singleton("broken", func(*Container) (interface{}, error) {
		return nil, assert.AnError
	})
	_, err = c.Make("broken")
	assert.True(t, errors.Is(err, assert.AnError))
	assert.False(t, c.Resolved("broken"))
}

func TestContainer_Registry(t *testing.T) {
	c := NewContainer()
	c.Instance("b", 1)
	c.Bind("a", func(*Container) (interface{}, error) { return 2, nil })

	assert.True(t, c.Bound("a"))
	assert.True(t, c.Has("b"))
	assert.False(t, c.Has("c"))
	assert.Equal(t, []string{"a", "b"}, c.Names())

	c.Forget("a")
	assert.False(t, c.Bound("a"))

	c.Instance("a", 1)
	c.Bind("a", func(*Container) (interface{}, error) { return 3, nil })
	v, err := c.Make("a")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

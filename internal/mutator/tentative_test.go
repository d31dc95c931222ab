package mutator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type car struct {
	Name  string
	Color string
}

func setName(name string) func(car) car {
	return func(c car) car { c.Name = name; return c }
}

func setColor(color string) func(car) car {
	return func(c car) car { c.Color = color; return c }
}

func TestTentative_OverlappingRollback(t *testing.T) {
	l := NewTentative[car]()
	base := car{Name: "Golf", Color: "blue"}

	tagName, shown := l.Apply("c1", base, setName("Polo"))
	assert.Equal(t, car{Name: "Polo", Color: "blue"}, shown)

	tagColor, shown := l.Apply("c1", car{Name: "ignored"}, setColor("red"))
	assert.Equal(t, car{Name: "Polo", Color: "red"}, shown)
	assert.NotEqual(t, tagName, tagColor)
	assert.Equal(t, 2, l.Pending("c1"))

	v, ok := l.Rollback("c1", tagName)
	require.True(t, ok)
	assert.Equal(t, car{Name: "Golf", Color: "red"}, v, "rolling back one patch keeps the other")

	v, ok = l.Confirm("c1", tagColor)
	require.True(t, ok)
	assert.Equal(t, car{Name: "Golf", Color: "red"}, v)

	_, ok = l.Effective("c1")
	assert.False(t, ok, "settled entities are forgotten")
	assert.Equal(t, 0, l.Pending("c1"))
}

func TestTentative_ConfirmWith(t *testing.T) {
	l := NewTentative[car]()

	first, _ := l.Apply("c1", car{Name: "Golf"}, setName("Polo"))
	_, _ = l.Apply("c1", car{}, setColor("green"))

	v, ok := l.ConfirmWith("c1", first, car{Name: "Polo (server)"})
	require.True(t, ok)
	assert.Equal(t, car{Name: "Polo (server)", Color: "green"}, v)

	b, ok := l.Base("c1")
	require.True(t, ok)
	assert.Equal(t, "Polo (server)", b.Name)
}

func TestTentative_UnknownTag(t *testing.T) {
	l := NewTentative[car]()

	_, ok := l.Rollback("missing", "tag")
	assert.False(t, ok)

	_, _ = l.Apply("c1", car{Name: "Golf"}, setName("Polo"))
	v, ok := l.Confirm("c1", "other")
	assert.False(t, ok)
	assert.Equal(t, "Polo", v.Name)
	assert.Equal(t, 1, l.Pending("c1"))
}

package branch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParse(t *testing.T) {
	t.Run("Root", func(t *testing.T) {
		p, err := Parse("HOME")
		assert.NoError(t, err)
		assert.True(t, p.IsRoot())
		assert.Equal(t, 0, p.Depth())
		assert.Equal(t, "HOME", p.String())
	})

	t.Run("Nested", func(t *testing.T) {
		p, err := Parse("HOME/Food/Snacks")
		assert.NoError(t, err)
		assert.Equal(t, Path{"HOME", "Food", "Snacks"}, p)
		assert.Equal(t, "Snacks", p.Name())
		assert.Equal(t, 2, p.Depth())
		assert.Equal(t, "HOME/Food", p.Parent().String())
	})

	t.Run("MissingRoot", func(t *testing.T) {
		_, err := Parse("Food/Snacks")
		assert.Error(t, err)
	})

	t.Run("EmptySegment", func(t *testing.T) {
		_, err := Parse("HOME//Snacks")
		assert.True(t, errors.Is(err, ErrInvalidName))
	})
}

func TestPathValueSemantics(t *testing.T) {
	base := MustParse("HOME/Food")
	a := base.Join("Snacks")
	b := base.Join("Drinks")

	assert.Equal(t, "HOME/Food/Snacks", a.String())
	assert.Equal(t, "HOME/Food/Drinks", b.String())
	assert.Equal(t, "HOME/Food", base.String())
	assert.True(t, RootPath().Parent().IsRoot())
}

func TestHasPrefixRespectsSegments(t *testing.T) {
	food := MustParse("HOME/Food")

	assert.True(t, MustParse("HOME/Food").HasPrefix(food))
	assert.True(t, MustParse("HOME/Food/Snacks").HasPrefix(food))
	assert.False(t, MustParse("HOME/FoodTruck").HasPrefix(food))
	assert.False(t, MustParse("HOME").HasPrefix(food))

	assert.True(t, Within("HOME/Food", "HOME/Food"))
	assert.True(t, Within("HOME/Food/Snacks", "HOME/Food"))
	assert.False(t, Within("HOME/FoodTruck", "HOME/Food"))
	assert.False(t, Within("HOME/FoodTruck/Tacos", "HOME/Food"))
}

func TestRebase(t *testing.T) {
	from := MustParse("HOME/Food")
	to := MustParse("HOME/Groceries")

	got, ok := MustParse("HOME/Food/Snacks").Rebase(from, to)
	assert.True(t, ok)
	assert.Equal(t, "HOME/Groceries/Snacks", got.String())

	_, ok = MustParse("HOME/FoodTruck").Rebase(from, to)
	assert.False(t, ok)

	s, ok := RebaseString("HOME/Food", "HOME/Food", "HOME/Groceries")
	assert.True(t, ok)
	assert.Equal(t, "HOME/Groceries", s)

	_, ok = RebaseString("HOME/FoodTruck", "HOME/Food", "HOME/Groceries")
	assert.False(t, ok)
}

func TestChain(t *testing.T) {
	p := MustParse("HOME/Food/Snacks/Chips")

	chain := p.Chain(MustParse("HOME/Food"))
	var got []string
	for _, c := range chain {
		got = append(got, c.String())
	}
	assert.Equal(t, []string{"HOME/Food", "HOME/Food/Snacks", "HOME/Food/Snacks/Chips"}, got)

	assert.Equal(t, 1, len(p.Chain(p)))
	assert.Equal(t, 0, len(p.Chain(MustParse("HOME/Rent"))))
}

func TestValidateName(t *testing.T) {
	valid := []string{"Food", "식비", "Rent 2024", "50%_off", "a.b"}
	for _, name := range valid {
		t.Run("valid "+name, func(t *testing.T) {
			assert.NoError(t, ValidateName(name))
		})
	}

	invalid := []string{"", "   ", "HOME", "home", "Home", ".", "..", "a/b", `a\b`, "a:b", "a*b", "a?b", `a"b`, "a<b", "a>b", "a|b"}
	for _, name := range invalid {
		t.Run(fmt.Sprintf("invalid %q", name), func(t *testing.T) {
			err := ValidateName(name)
			assert.True(t, errors.Is(err, ErrInvalidName), "expected invalid name for %q, got %v", name, err)
			var nameErr *InvalidNameError
			assert.True(t, errors.As(err, &nameErr))
			assert.Equal(t, name, nameErr.GetName())
		})
	}
}

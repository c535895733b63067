package referee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixedDraw(n int) *EvenOdd {
	return NewEvenOddWithDraw(func() int { return n })
}

func TestResolveSameChoiceIsDraw(t *testing.T) {
	cases := []struct {
		choice string
		drawn  int
	}{
		{"odd", 7},
		{"odd", 4},
		{"even", 7},
		{"even", 4},
	}

	for _, c := range cases {
		outcome := fixedDraw(c.drawn).Resolve("P-1", c.choice, "P-2", c.choice)
		assert.Nil(t, outcome.Winner, "Same choices draw regardless of the drawn value")
		assert.Equal(t, map[string]int{"P-1": 1, "P-2": 1}, outcome.Score)
		assert.Equal(t, "DRAW", outcome.Outcome)
	}
}

func TestResolveDrawnParityWins(t *testing.T) {
	outcome := fixedDraw(7).Resolve("P-1", "odd", "P-2", "even")
	assert.NotNil(t, outcome.Winner)
	assert.Equal(t, "P-1", *outcome.Winner, "Odd chooser wins on a drawn 7")
	assert.Equal(t, map[string]int{"P-1": 3, "P-2": 0}, outcome.Score)
	assert.Equal(t, 7, outcome.DrawnNumber)

	outcome = fixedDraw(7).Resolve("P-1", "even", "P-2", "odd")
	assert.Equal(t, "P-2", *outcome.Winner)
	assert.Equal(t, map[string]int{"P-1": 0, "P-2": 3}, outcome.Score)

	outcome = fixedDraw(4).Resolve("P-1", "even", "P-2", "odd")
	assert.Equal(t, "P-1", *outcome.Winner, "Even chooser wins on a drawn 4")
}

func TestResolveSingleForfeit(t *testing.T) {
	outcome := fixedDraw(4).Resolve("P-1", "even", "P-2", "")
	assert.NotNil(t, outcome.Winner)
	assert.Equal(t, "P-1", *outcome.Winner, "The responsive player takes the match")
	assert.Equal(t, map[string]int{"P-1": 3, "P-2": 0}, outcome.Score)

	// The drawn value never matters for a forfeit.
	outcome = fixedDraw(7).Resolve("P-1", "", "P-2", "even")
	assert.Equal(t, "P-2", *outcome.Winner)
	assert.Equal(t, map[string]int{"P-1": 0, "P-2": 3}, outcome.Score)
}

func TestResolveDoubleForfeit(t *testing.T) {
	outcome := fixedDraw(7).Resolve("P-1", "", "P-2", "")
	assert.Nil(t, outcome.Winner)
	assert.Equal(t, map[string]int{"P-1": 0, "P-2": 0}, outcome.Score)
	assert.Equal(t, "DOUBLE_FORFEIT", outcome.Outcome)
}

func TestNewEvenOddDrawsInRange(t *testing.T) {
	g := NewEvenOdd()
	for i := 0; i < 100; i++ {
		n := g.draw()
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 10)
	}
}

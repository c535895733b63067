package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fourPlayers() []string {
	return []string{"P-1", "P-2", "P-3", "P-4"}
}

func twoReferees() []string {
	return []string{"REF-1", "REF-2"}
}

func TestGenerateShape(t *testing.T) {
	rounds, err := Generate(fourPlayers(), twoReferees())
	assert.Nil(t, err, "Should generate without error")
	assert.Len(t, rounds, 3, "Four players should play three rounds")

	for _, round := range rounds {
		assert.Len(t, round.Matches, 2, "Each round should hold two matches")
	}
}

func TestGenerateEveryPairOnce(t *testing.T) {
	rounds, err := Generate(fourPlayers(), twoReferees())
	assert.Nil(t, err)

	pairs := map[string]int{}
	for _, round := range rounds {
		for _, m := range round.Matches {
			pairs[pairKey(m.PlayerA, m.PlayerB)]++
		}
	}

	assert.Len(t, pairs, 6, "Four players form six unordered pairs")
	for pair, count := range pairs {
		assert.Equal(t, 1, count, "Pair %s should appear exactly once", pair)
	}
}

func TestGenerateNoPlayerTwicePerRound(t *testing.T) {
	rounds, err := Generate(fourPlayers(), twoReferees())
	assert.Nil(t, err)

	for _, round := range rounds {
		seen := map[string]bool{}
		for _, m := range round.Matches {
			assert.False(t, seen[m.PlayerA], "%s appears twice in round %d", m.PlayerA, round.Number)
			assert.False(t, seen[m.PlayerB], "%s appears twice in round %d", m.PlayerB, round.Number)
			seen[m.PlayerA] = true
			seen[m.PlayerB] = true
		}
	}
}

func TestGenerateRefereeBalance(t *testing.T) {
	rounds, err := Generate(fourPlayers(), twoReferees())
	assert.Nil(t, err)

	load := map[string]int{}
	for _, round := range rounds {
		for _, m := range round.Matches {
			load[m.Referee]++
		}
	}

	assert.Equal(t, 3, load["REF-1"], "REF-1 should take three matches")
	assert.Equal(t, 3, load["REF-2"], "REF-2 should take three matches")
}

func TestGenerateRefereeSlotRotates(t *testing.T) {
	rounds, err := Generate(fourPlayers(), twoReferees())
	assert.Nil(t, err)

	firstSlot := map[string]bool{}
	for _, round := range rounds {
		firstSlot[round.Matches[0].Referee] = true
	}
	assert.Len(t, firstSlot, 2, "The first match slot should not belong to one referee every round")
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(fourPlayers(), twoReferees())
	assert.Nil(t, err)
	b, err := Generate(fourPlayers(), twoReferees())
	assert.Nil(t, err)
	assert.Equal(t, a, b, "Same roster order should yield the same plan")
}

func TestGenerateSixPlayers(t *testing.T) {
	players := []string{"P-1", "P-2", "P-3", "P-4", "P-5", "P-6"}
	rounds, err := Generate(players, twoReferees())
	assert.Nil(t, err)
	assert.Len(t, rounds, 5)

	pairs := map[string]int{}
	for _, round := range rounds {
		assert.Len(t, round.Matches, 3)
		for _, m := range round.Matches {
			pairs[pairKey(m.PlayerA, m.PlayerB)]++
		}
	}
	assert.Len(t, pairs, 15, "Six players form fifteen unordered pairs")
}

func TestGenerateRejectsOddPlayerCount(t *testing.T) {
	_, err := Generate([]string{"P-1", "P-2", "P-3"}, twoReferees())
	assert.NotNil(t, err, "Odd player counts have no round-robin without byes")
}

func TestGenerateRejectsNoReferees(t *testing.T) {
	_, err := Generate(fourPlayers(), nil)
	assert.NotNil(t, err)
}

func TestFindMatch(t *testing.T) {
	rounds, err := Generate(fourPlayers(), twoReferees())
	assert.Nil(t, err)

	m, ok := FindMatch(rounds, "R2M1")
	assert.True(t, ok)
	assert.Equal(t, 2, m.Round)
	assert.Equal(t, 1, m.Number)

	_, ok = FindMatch(rounds, "R9M9")
	assert.False(t, ok)
}

func TestValidateCatchesDuplicatePair(t *testing.T) {
	rounds := []Round{
		{Number: 1, RoundID: "R1", Matches: []Match{
			{Round: 1, Number: 1, MatchID: "R1M1", PlayerA: "P-1", PlayerB: "P-2", Referee: "REF-1"},
		}},
		{Number: 2, RoundID: "R2", Matches: []Match{
			{Round: 2, Number: 1, MatchID: "R2M1", PlayerA: "P-2", PlayerB: "P-1", Referee: "REF-2"},
		}},
	}

	err := validate(rounds, []string{"P-1", "P-2"})
	assert.ErrorIs(t, err, ErrScheduleInvariant)
}

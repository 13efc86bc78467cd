package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"tamperstat/domain/core"
)

const rankTable = `# Results from a Tamper Trial
name tampered muts_in_sites total_sites total_singles
WH1-RaTG13 false 9 4 2
WH1-BtSY2 false 1 1 1
RaTG13 true 3 2 1
RaTG13 false 50 9 0
RaTG13 true 5 3 2
BtSY2 true 3 2 1
BtSY2 true 4 2 1
BtSY2 false 0 0 0
`

func TestSplitReferences(t *testing.T) {
	split, err := SplitReferences(mustTable(t, rankTable), "WH1-")
	require.NoError(t, err)
	require.Len(t, split.References, 2)
	assert.Equal(t, "WH1-RaTG13", split.References[0].Name)
	assert.Equal(t, "RaTG13", split.References[0].Simulated)

	sims := split.Simulated()
	require.Len(t, sims, 2)
	assert.Equal(t, "RaTG13", sims[0].Name)
	assert.Equal(t, 3, sims[0].Len())
}

func TestSplitReferences_Errors(t *testing.T) {
	_, err := SplitReferences(mustTable(t, rankTable+"WH1-BtSY2 false 2 2 2\n"), "WH1-")
	assert.ErrorIs(t, err, core.ErrReferenceArity)
	assert.True(t, core.IsStructuralError(err))

	split, err := SplitReferences(mustTable(t, rankTable+"WH1-Pangolin false 1 1 1\n"), "WH1-")
	require.NoError(t, err)
	f, err := LookupFeature("muts_in_sites")
	require.NoError(t, err)
	_, err = RankReferences(split, f, &Tally{})
	assert.ErrorIs(t, err, core.ErrMissingCounterpart)
}

func TestRankReferences(t *testing.T) {
	split, err := SplitReferences(mustTable(t, rankTable), "WH1-")
	require.NoError(t, err)
	f, err := LookupFeature("muts_in_sites")
	require.NoError(t, err)

	tally := &Tally{}
	ranks, err := RankReferences(split, f, tally)
	require.NoError(t, err)
	require.Len(t, ranks, 2)

	// WH1-RaTG13 scores 9: higher than both tampered simulations. The
	// untampered 50 is not part of the comparison.
	assert.Equal(t, 9.0, ranks[0].Value)
	assert.Equal(t, Tally{Compared: 2, Exceeding: 0}, ranks[0].Own)
	frac, err := ranks[0].Own.Fraction()
	require.NoError(t, err)
	assert.Equal(t, 0.0, frac)

	// WH1-BtSY2 scores 1: every tampered simulation exceeds it
	assert.Equal(t, Tally{Compared: 2, Exceeding: 2}, ranks[1].Own)
	frac, err = ranks[1].Own.Fraction()
	require.NoError(t, err)
	assert.Equal(t, 1.0, frac)

	assert.Equal(t, Tally{Compared: 4, Exceeding: 2}, ranks[1].Cumulative)
	assert.Equal(t, *tally, ranks[1].Cumulative)

	// A second feature keeps accumulating into the same tally
	sites, err := LookupFeature("total_sites")
	require.NoError(t, err)
	_, err = RankReferences(split, sites, tally)
	require.NoError(t, err)
	assert.Equal(t, 8, tally.Compared)
}

func TestRankReferences_UndefinedReferenceValue(t *testing.T) {
	text := `name tampered muts_in_sites total_sites
WH1-A false 0 0
A true 3 2
`
	split, err := SplitReferences(mustTable(t, text), "WH1-")
	require.NoError(t, err)
	f, err := LookupFeature(MutationsPerSite)
	require.NoError(t, err)

	tally := &Tally{}
	ranks, err := RankReferences(split, f, tally)
	require.NoError(t, err)
	require.Len(t, ranks, 1)
	assert.True(t, core.IsUndefined(ranks[0].Err))
	assert.Equal(t, Tally{}, *tally)

	_, err = tally.Fraction()
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestRankReferences_Bounds(t *testing.T) {
	f, err := LookupFeature("muts_in_sites")
	require.NoError(t, err)

	rapid.Check(t, func(rt *rapid.T) {
		values := rapid.SliceOfN(rapid.IntRange(10, 100), 1, 30).Draw(rt, "values")
		above := rapid.Bool().Draw(rt, "above")

		ref := 5
		if above {
			ref = 500
		}
		var b strings.Builder
		fmt.Fprintf(&b, "name tampered muts_in_sites\nWH1-S false %d\n", ref)
		for _, v := range values {
			fmt.Fprintf(&b, "S true %d\nS false %d\n", v, ref*1000)
		}

		split, err := SplitReferences(mustTable(t, b.String()), "WH1-")
		require.NoError(rt, err)
		ranks, err := RankReferences(split, f, &Tally{})
		require.NoError(rt, err)

		frac, err := ranks[0].Own.Fraction()
		require.NoError(rt, err)
		if above {
			require.Equal(rt, 0.0, frac)
		} else {
			require.Equal(rt, 1.0, frac)
		}
	})
}

package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamperstat/domain/core"
	"tamperstat/domain/results"
)

func TestPointBiserial_PerfectCorrelation(t *testing.T) {
	truth := []bool{true, false, true, false, true, false}
	values := []int{10, 2, 10, 2, 10, 2}
	pop := mustPopulation(t, tamperRows("pop", "total_sites", truth, values), "pop")

	f, err := LookupFeature("total_sites")
	require.NoError(t, err)

	c, err := PointBiserial(pop, results.FieldTampered, f)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, math.Abs(c.Coefficient), 1e-9)
	assert.Less(t, c.PValue, 1e-6)
	assert.Equal(t, 6, c.N)

	// Inverting the feature flips the sign only
	inverted := mustPopulation(t, tamperRows("pop", "total_sites", truth, []int{1, 9, 1, 9, 1, 9}), "pop")
	c, err = PointBiserial(inverted, results.FieldTampered, f)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, c.Coefficient, 1e-9)
}

func TestPointBiserial_KnownValue(t *testing.T) {
	pop := mustPopulation(t, tamperRows("pop", "muts_in_sites",
		[]bool{false, false, true, true}, []int{1, 2, 3, 5}), "pop")
	f, err := LookupFeature("muts_in_sites")
	require.NoError(t, err)

	c, err := PointBiserial(pop, results.FieldTampered, f)
	require.NoError(t, err)
	// r = 2.5/sqrt(8.75); with two degrees of freedom p = 1 - r
	assert.InDelta(t, 0.8451542547285166, c.Coefficient, 1e-12)
	assert.InDelta(t, 1-0.8451542547285166, c.PValue, 1e-9)
}

func TestPointBiserial_Undefined(t *testing.T) {
	f, err := LookupFeature("total_sites")
	require.NoError(t, err)

	tests := []struct {
		name   string
		truth  []bool
		values []int
		want   error
	}{
		{"constant feature", []bool{true, false, true}, []int{4, 4, 4}, core.ErrNoVariance},
		{"constant outcome", []bool{true, true, true}, []int{1, 2, 3}, core.ErrNoVariance},
		{"single sample", []bool{true}, []int{1}, core.ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pop := mustPopulation(t, tamperRows("pop", "total_sites", tt.truth, tt.values), "pop")
			_, err := PointBiserial(pop, results.FieldTampered, f)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, core.IsUndefined(err))
		})
	}
}

func TestPointBiserial_SkipsUndefinedFeature(t *testing.T) {
	pop := mustPopulation(t, `name tampered muts_in_sites total_sites
pop true 6 3
pop false 0 0
pop false 2 2
pop true 9 3
pop false 0 0
`, "pop")

	f, err := LookupFeature(MutationsPerSite)
	require.NoError(t, err)

	c, err := PointBiserial(pop, results.FieldTampered, f)
	require.NoError(t, err)
	assert.Equal(t, 3, c.N)
	assert.Greater(t, c.Coefficient, 0.0)
}

func TestCorrelateTable(t *testing.T) {
	tbl := mustTable(t, `name tampered total_sites total_singles
a true 5 1
a false 1 1
a true 6 1
b true 2 0
b false 2 3
`)
	features, err := ResolveFeatures(tbl.Schema, []string{"total_sites", "total_singles"})
	require.NoError(t, err)

	rows, err := CorrelateTable(tbl, results.FieldTampered, features)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.NoError(t, rows[0].Err)
	assert.ErrorIs(t, rows[1].Err, core.ErrNoVariance)
	assert.ErrorIs(t, rows[2].Err, core.ErrNoVariance)
	assert.NoError(t, rows[3].Err)
	assert.Equal(t, "b", rows[3].Population)
	assert.Equal(t, "total_singles", rows[3].Feature)
}

func TestCorrelateTable_FieldTypeIsFatal(t *testing.T) {
	tbl := mustTable(t, "name tampered flag\na true 1\na false oops\n")
	f := intFeature("flag")
	_, err := CorrelateTable(tbl, results.FieldTampered, []Feature{f})
	assert.ErrorIs(t, err, core.ErrFieldType)
}

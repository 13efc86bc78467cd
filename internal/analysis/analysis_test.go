package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tamperstat/adapters/table"
	"tamperstat/domain/results"
)

// mustTable parses literal table text for tests
func mustTable(t testing.TB, text string) *results.Table {
	t.Helper()
	tbl, err := table.ParseAll(table.FromString(t.Name(), text))
	require.NoError(t, err)
	return tbl
}

// mustPopulation returns the named population of a literal table
func mustPopulation(t testing.TB, text, name string) *results.Population {
	t.Helper()
	pop, ok := mustTable(t, text).Population(name)
	require.True(t, ok, "population %s", name)
	return pop
}

// tamperRows builds "name tampered <field>" rows from parallel slices
func tamperRows(name, field string, tampered []bool, values []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name tampered %s\n", field)
	for i := range tampered {
		fmt.Fprintf(&b, "%s %t %d\n", name, tampered[i], values[i])
	}
	return b.String()
}

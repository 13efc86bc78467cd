package testkit

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// TrialGeneratorConfig configures the synthetic trial table generator
type TrialGeneratorConfig struct {
	Genomes          []string `json:"genomes"`
	TrialsPerGenome  int      `json:"trials_per_genome"`
	GenomeLen        int      `json:"genome_len"`
	MaxSegmentLength int      `json:"max_segment_length"`
	ReferencePrefix  string   `json:"reference_prefix"`
	TamperShift      int      `json:"tamper_shift"`
	Seed             int64    `json:"seed"`
}

// DefaultTrialConfig mirrors the genomes and constants of the real trials
func DefaultTrialConfig() TrialGeneratorConfig {
	return TrialGeneratorConfig{
		Genomes: []string{
			"BtSY2",
			"BANAL-20-52",
			"RaTG13",
		},
		TrialsPerGenome:  200,
		GenomeLen:        29800,
		MaxSegmentLength: 8000,
		ReferencePrefix:  "WH1-",
		TamperShift:      3,
		Seed:             42,
	}
}

// TrialGenerator writes result tables in the producer's text format
type TrialGenerator struct {
	config TrialGeneratorConfig
	rng    *rand.Rand
}

// NewTrialGenerator creates a generator; equal seeds produce identical tables.
func NewTrialGenerator(config TrialGeneratorConfig) *TrialGenerator {
	return &TrialGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// SpacingHeader is the column list written by spacing trials
const SpacingHeader = "name count max_length unique acceptable interleaved muts_in_sites total_sites total_singles genome_len positions"

// TamperHeader is the column list written by tamper trials
const TamperHeader = "name tampered muts_in_sites total_sites total_singles added removed acc"

// WriteSpacing writes a restriction-map spacing trial table
func (g *TrialGenerator) WriteSpacing(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Trials: %d Muts: 0 (0 means auto) Edits: 0\n", g.config.TrialsPerGenome)
	fmt.Fprintln(bw, "# Results from a Spacing Trial")
	fmt.Fprintln(bw, SpacingHeader)

	for _, genome := range g.config.Genomes {
		for i := 0; i < g.config.TrialsPerGenome; i++ {
			g.writeSpacingRow(bw, genome)
		}
	}
	return bw.Flush()
}

func (g *TrialGenerator) writeSpacingRow(w io.Writer, name string) {
	count := 3 + g.rng.Intn(8)
	positions := make([]int, count)
	for i := range positions {
		positions[i] = g.rng.Intn(g.config.GenomeLen)
	}
	sort.Ints(positions)

	maxLength := longestSegment(positions, g.config.GenomeLen)
	unique := g.rng.Intn(4) != 0
	acceptable := unique && maxLength < g.config.MaxSegmentLength
	interleaved := g.rng.Intn(3) == 0
	totalSites := g.rng.Intn(count + 1)
	singles := 0
	if totalSites > 0 {
		singles = g.rng.Intn(totalSites + 1)
	}
	muts := totalSites + g.rng.Intn(totalSites+1)

	fmt.Fprintln(w, name, count, maxLength, unique, acceptable, interleaved,
		muts, totalSites, singles, g.config.GenomeLen, formatPositions(positions))
}

// WriteTamper writes a tamper trial table: one reference row per genome, then
// trials where tampered genomes carry more mutations in sites.
func (g *TrialGenerator) WriteTamper(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# Results from a Tamper Trial")
	fmt.Fprintln(bw, TamperHeader)

	for _, genome := range g.config.Genomes {
		fmt.Fprintln(bw, g.config.ReferencePrefix+genome, false,
			6+g.config.TamperShift, 4, 2, 0, 0, false)
	}
	for _, genome := range g.config.Genomes {
		for i := 0; i < g.config.TrialsPerGenome; i++ {
			tampered := g.rng.Intn(2) == 1
			sites := 2 + g.rng.Intn(4)
			muts := sites + g.rng.Intn(3)
			added, removed := 0, 0
			if tampered {
				muts += g.config.TamperShift
				sites += g.rng.Intn(2)
				added, removed = 1+g.rng.Intn(3), 1+g.rng.Intn(3)
			}
			singles := g.rng.Intn(sites + 1)
			detected := tampered == (g.rng.Intn(5) != 0)
			fmt.Fprintln(bw, genome, tampered, muts, sites, singles, added, removed, detected)
		}
	}
	return bw.Flush()
}

func longestSegment(positions []int, genomeLen int) int {
	longest, prev := 0, 0
	for _, p := range positions {
		if p-prev > longest {
			longest = p - prev
		}
		prev = p
	}
	if genomeLen-prev > longest {
		longest = genomeLen - prev
	}
	return longest
}

func formatPositions(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = strconv.Itoa(p)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

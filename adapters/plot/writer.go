package plot

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"tamperstat/internal/analysis"
	"tamperstat/internal/errors"
)

// Writer emits plot data files and gnuplot scripts into one directory.
// Every file is written to a temporary name and renamed into place once
// closed, so a reader never sees a partial file.
type Writer struct {
	dir string
}

// NewWriter creates the output directory if needed
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.ExportError(dir, err)
	}
	return &Writer{dir: dir}, nil
}

// Dir is the output directory
func (w *Writer) Dir() string { return w.dir }

// WriteGraphFiles writes <population>_true.dat and <population>_false.dat
// holding "count max_length" lines. Returns the file names written.
func (w *Writer) WriteGraphFiles(series []analysis.GraphSeries) ([]string, error) {
	var written []string
	for _, s := range series {
		for _, part := range []struct {
			suffix string
			points []analysis.Point
		}{
			{"_true.dat", s.Acceptable},
			{"_false.dat", s.Rejected},
		} {
			name := s.Population + part.suffix
			err := w.writeFile(name, func(b *bufio.Writer) error {
				for _, p := range part.points {
					if _, err := fmt.Fprintf(b, "%d %d\n", p.Count, p.MaxLength); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return written, err
			}
			written = append(written, name)
		}
	}
	return written, nil
}

// BoxplotFiles names the files emitted for one series
type BoxplotFiles struct {
	TrueFile  string
	FalseFile string
	Script    string
}

// BoxplotBase is "<simulated>-<feature>", the stem of every boxplot file.
func BoxplotBase(s analysis.BoxplotSeries) string {
	return s.Simulated + "-" + s.Feature
}

// WriteBoxplot writes the two single-column data files and the gnuplot
// script for one series. Series with Err set are not written.
func (w *Writer) WriteBoxplot(s analysis.BoxplotSeries, label string) (BoxplotFiles, error) {
	if s.Err != nil {
		return BoxplotFiles{}, s.Err
	}
	base := BoxplotBase(s)
	files := BoxplotFiles{
		TrueFile:  base + "_true.dat",
		FalseFile: base + "_false.dat",
		Script:    base + ".gpi",
	}

	if err := w.writeFile(files.TrueFile, column(s.Tampered)); err != nil {
		return files, err
	}
	if err := w.writeFile(files.FalseFile, column(s.Untampered)); err != nil {
		return files, err
	}

	params := scriptParams{
		Title:     fmt.Sprintf("%s vs %s", s.Reference, s.Simulated),
		Label:     label,
		Reference: formatValue(s.ReferenceValue),
		TrueFile:  files.TrueFile,
		FalseFile: files.FalseFile,
		Output:    base + ".png",
	}
	err := w.writeFile(files.Script, func(b *bufio.Writer) error {
		return boxplotScript.Execute(b, params)
	})
	return files, err
}

func column(values []float64) func(*bufio.Writer) error {
	return func(b *bufio.Writer) error {
		for _, v := range values {
			if _, err := b.WriteString(formatValue(v) + "\n"); err != nil {
				return err
			}
		}
		return nil
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (w *Writer) writeFile(name string, fill func(*bufio.Writer) error) error {
	path := filepath.Join(w.dir, name)
	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return errors.ExportError(path, err)
	}
	defer os.Remove(tmp.Name())

	b := bufio.NewWriter(tmp)
	if err := fill(b); err != nil {
		tmp.Close()
		return errors.ExportError(path, err)
	}
	if err := b.Flush(); err != nil {
		tmp.Close()
		return errors.ExportError(path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.ExportError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.ExportError(path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.ExportError(path, err)
	}
	return nil
}

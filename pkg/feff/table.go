package feff

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kacperjurak/goexafs/pkg/models"
)

type tableWriter struct {
	w io.Writer
}

func newTableWriter(w io.Writer) *tableWriter {
	header := fmt.Sprintf("%4s  %-7s  %8s  %9s  %4s  %5s", "Path", "Bond", "Amp (%)", "R_eff (Å)", "Deg", "Nlegs")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len([]rune(header))))
	return &tableWriter{w: w}
}

func (t *tableWriter) row(p models.ScatteringPath) {
	fmt.Fprintf(t.w, "%4d  %-7s  %8.3f  %9.3f  %4.1f  %5d\n",
		p.Index, p.BondLabel, p.AmplitudeRatio, p.EffectiveLength, p.Degeneracy, p.LegCount)
}

// PathTable is the k-dependent part of a feffNNNN.dat file.
type PathTable struct {
	K         []float64
	RealPhc   []float64 // real[2*phc]
	Mag       []float64 // mag[feff]
	Phase     []float64 // phase[feff]
	RedFactor []float64
	Lambda    []float64
	RealP     []float64
}

// Len returns the number of k points.
func (t *PathTable) Len() int { return len(t.K) }

const pathTableColumns = 7

// ReadPathTable parses the numeric table that follows the "k real[2*phc]"
// column header of a path data file.
func ReadPathTable(file string) (*PathTable, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read path file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	start := -1
	for i, l := range lines {
		fields := strings.Fields(l)
		if len(fields) > 1 && fields[0] == "k" && strings.HasPrefix(fields[1], "real[") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%s: no k table header", file)
	}

	t := &PathTable{}
	cols := []*[]float64{&t.K, &t.RealPhc, &t.Mag, &t.Phase, &t.RedFactor, &t.Lambda, &t.RealP}
	for i := start; i < len(lines); i++ {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 {
			continue
		}
		if len(fields) < pathTableColumns {
			return nil, fmt.Errorf("%s: line %d: expected %d columns, got %d", file, i+1, pathTableColumns, len(fields))
		}
		for c := 0; c < pathTableColumns; c++ {
			v, err := strconv.ParseFloat(fields[c], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: line %d: %w", file, i+1, err)
			}
			*cols[c] = append(*cols[c], v)
		}
	}
	if t.Len() < 2 {
		return nil, errors.New(file + ": path table needs at least two k points")
	}
	return t, nil
}

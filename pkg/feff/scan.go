// Package feff reads the output directory of a FEFF path calculation: the
// list.dat manifest and the feffNNNN.dat files it refers to.
package feff

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kacperjurak/goexafs/pkg/models"
)

// ManifestName is the file FEFF writes its path list to.
const ManifestName = "list.dat"

var (
	ErrManifestNotFound  = errors.New("feff: manifest not found")
	ErrManifestMalformed = errors.New("feff: manifest malformed")
	ErrPathFileMissing   = errors.New("feff: path file missing")
)

const (
	headerMarker = "pathindex"
	atomMarker   = "pot at#"
	minSeparator = 5
)

// manifest column positions, fixed by the FEFF list.dat layout
const (
	colIndex     = 0
	colAmplitude = 2
	colDegen     = 3
	colLegs      = 4
	colReff      = 5
)

// ScanOptions configures Scan. Nil filters accept every row.
type ScanOptions struct {
	MinAmplitudeRatio  *float64
	MaxEffectiveLength *float64
	Verbose            bool
	Table              io.Writer
	Logger             *zap.Logger
}

// Catalog is the ordered set of accepted paths. It is read-only once built.
type Catalog struct {
	dir     string
	keys    []string
	paths   map[string]models.ScatteringPath
	skipped int
}

// Dir returns the scanned run directory.
func (c *Catalog) Dir() string { return c.dir }

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.keys) }

// Keys returns the keys in manifest order.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the path stored under key.
func (c *Catalog) Get(key string) (models.ScatteringPath, bool) {
	p, ok := c.paths[key]
	return p, ok
}

// Paths returns the entries in manifest order.
func (c *Catalog) Paths() []models.ScatteringPath {
	out := make([]models.ScatteringPath, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.paths[k])
	}
	return out
}

// Files returns the key to data file mapping.
func (c *Catalog) Files() map[string]string {
	out := make(map[string]string, len(c.keys))
	for _, k := range c.keys {
		out[k] = c.paths[k].File
	}
	return out
}

// Skipped returns how many accepted rows were dropped for lack of a data file.
func (c *Catalog) Skipped() int { return c.skipped }

type manifestRow struct {
	index     int
	amplitude float64
	degen     float64
	legs      int
	reff      float64
}

// Scan parses the manifest in dir, filters its rows and resolves the data
// file of each accepted row. Rows whose data file is absent are dropped.
func Scan(dir string, opts ScanOptions) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rows, err := readManifest(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}

	cat := &Catalog{
		dir:   dir,
		paths: make(map[string]models.ScatteringPath),
	}

	var table *tableWriter
	if opts.Verbose {
		w := opts.Table
		if w == nil {
			w = os.Stderr
		}
		table = newTableWriter(w)
	}

	for _, row := range rows {
		if !accept(row, opts) {
			continue
		}

		file, err := resolvePathFile(dir, row.index)
		if err != nil {
			cat.skipped++
			logger.Debug("dropping path", zap.Int("index", row.index), zap.Error(err))
			continue
		}

		bond, err := readBondLabel(file)
		if err != nil {
			return nil, err
		}

		p := models.ScatteringPath{
			Index:           row.index,
			AmplitudeRatio:  row.amplitude,
			EffectiveLength: row.reff,
			Degeneracy:      row.degen,
			LegCount:        row.legs,
			BondLabel:       bond,
			File:            file,
		}
		if table != nil {
			table.row(p)
		}

		key := p.Key()
		if _, dup := cat.paths[key]; dup {
			return nil, fmt.Errorf("%w: duplicate path index %d", ErrManifestMalformed, row.index)
		}
		cat.keys = append(cat.keys, key)
		cat.paths[key] = p
	}

	logger.Info("scanned run directory",
		zap.String("dir", dir),
		zap.Int("rows", len(rows)),
		zap.Int("accepted", cat.Len()),
		zap.Int("skipped", cat.skipped))

	return cat, nil
}

func accept(row manifestRow, opts ScanOptions) bool {
	if opts.MinAmplitudeRatio != nil && row.amplitude < *opts.MinAmplitudeRatio {
		return false
	}
	if opts.MaxEffectiveLength != nil && row.reff > *opts.MaxEffectiveLength {
		return false
	}
	return true
}

func readManifest(name string) ([]manifestRow, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, name)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	start := tableStart(lines)
	if start < 0 {
		return nil, fmt.Errorf("%w: no table header in %s", ErrManifestMalformed, name)
	}

	var rows []manifestRow
	for i := start; i < len(lines); i++ {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 || !isDigits(fields[colIndex]) {
			continue
		}
		row, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrManifestMalformed, i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// tableStart returns the index of the first data line, or -1.
func tableStart(lines []string) int {
	for i, l := range lines {
		if strings.Contains(strings.ToLower(l), headerMarker) {
			return i + 1
		}
	}
	for i, l := range lines {
		if isSeparator(l) {
			return i + 1
		}
	}
	return -1
}

func isSeparator(line string) bool {
	s := strings.TrimSpace(line)
	if len(s) < minSeparator {
		return false
	}
	return strings.Trim(s, "-") == ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseRow(fields []string) (manifestRow, error) {
	if len(fields) <= colReff {
		return manifestRow{}, fmt.Errorf("expected at least %d columns, got %d", colReff+1, len(fields))
	}
	var (
		row manifestRow
		err error
	)
	if row.index, err = strconv.Atoi(fields[colIndex]); err != nil {
		return row, err
	}
	if row.amplitude, err = strconv.ParseFloat(fields[colAmplitude], 64); err != nil {
		return row, err
	}
	if row.degen, err = strconv.ParseFloat(fields[colDegen], 64); err != nil {
		return row, err
	}
	if row.legs, err = strconv.Atoi(fields[colLegs]); err != nil {
		return row, err
	}
	if row.reff, err = strconv.ParseFloat(fields[colReff], 64); err != nil {
		return row, err
	}
	return row, nil
}

// PathFileName returns the canonical data file name for a path index.
func PathFileName(index int) string {
	return fmt.Sprintf("feff%04d.dat", index)
}

func resolvePathFile(dir string, index int) (string, error) {
	name := filepath.Join(dir, PathFileName(index))
	if fileExists(name) {
		return name, nil
	}
	alt := strings.TrimSuffix(name, ".dat") + ".data"
	if fileExists(alt) {
		return alt, nil
	}
	return "", fmt.Errorf("%w: %s", ErrPathFileMissing, name)
}

func fileExists(name string) bool {
	st, err := os.Stat(name)
	return err == nil && !st.IsDir()
}

// readBondLabel builds "El0-El1" from the two atom lines following the
// "pot at#" header. Anything unexpected yields an empty label.
func readBondLabel(file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read path file: %w", err)
	}
	lines := strings.Split(string(data), "\n")
	for j, line := range lines {
		if !strings.Contains(strings.ToLower(line), atomMarker) {
			continue
		}
		end := min(j+4, len(lines))
		var atoms [][]string
		for _, l := range lines[j+1 : end] {
			if strings.TrimSpace(l) != "" {
				atoms = append(atoms, strings.Fields(l))
			}
		}
		if len(atoms) < 2 || len(atoms[0]) < 6 || len(atoms[1]) < 6 {
			return "", nil
		}
		return atoms[0][5] + "-" + atoms[1][5], nil
	}
	return "", nil
}

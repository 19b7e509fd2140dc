// Package spectrum reads pre-processed chi(k) data files.
package spectrum

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kacperjurak/goexafs/pkg/models"
)

// ErrEmpty is returned when a file holds no data rows.
var ErrEmpty = errors.New("spectrum: no data")

// Load reads a two-column "k chi" text file. Lines starting with '#' and
// blank lines are ignored; extra columns are allowed.
func Load(file string) (models.Spectrum, error) {
	f, err := os.Open(file)
	if err != nil {
		return models.Spectrum{}, fmt.Errorf("open spectrum: %w", err)
	}
	defer f.Close()

	sp, err := Parse(f)
	if err != nil {
		return models.Spectrum{}, fmt.Errorf("%s: %w", file, err)
	}
	sp.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return sp, nil
}

// Parse reads spectrum rows from r.
func Parse(r io.Reader) (models.Spectrum, error) {
	var sp models.Spectrum
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return sp, fmt.Errorf("line %d: expected k and chi columns", line)
		}
		var vals [2]float64
		for i := range vals {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return sp, fmt.Errorf("line %d: %w", line, err)
			}
			vals[i] = v
		}
		if n := len(sp.K); n > 0 && vals[0] <= sp.K[n-1] {
			return sp, fmt.Errorf("line %d: k values must increase", line)
		}
		sp.K = append(sp.K, vals[0])
		sp.Chi = append(sp.Chi, vals[1])
	}
	if err := scanner.Err(); err != nil {
		return sp, err
	}
	if len(sp.K) == 0 {
		return sp, ErrEmpty
	}
	return sp, nil
}

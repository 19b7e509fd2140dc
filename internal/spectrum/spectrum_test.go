package spectrum

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nio.chik")
	data := "# NiO chi(k)\n#  k  chi  mag\n\n0.00  0.0  0\n0.05  0.01  1\n0.10  -0.02  2\n"
	require.NoError(t, os.WriteFile(file, []byte(data), 0o644))

	sp, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "nio", sp.Name)
	assert.Equal(t, []float64{0, 0.05, 0.10}, sp.K)
	assert.Equal(t, []float64{0, 0.01, -0.02}, sp.Chi)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.chik"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single column", "1.0\n", "line 1"},
		{"bad number", "1.0 abc\n", "line 1"},
		{"not increasing", "1.0 0\n0.5 0\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := Parse(strings.NewReader("# only comments\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

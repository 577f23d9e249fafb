package testcommon

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/exp/constraints"
)

// GenerateSkewedTokens returns n tokens in [offset, offset+alphabet) where low values are far
// more frequent than high ones, roughly what text or residual data looks like.
func GenerateSkewedTokens[T constraints.Integer](seed int64, n int, alphabet int, offset int) []T {
	rng := rand.New(rand.NewSource(seed))
	tokens := make([]T, n)
	scale := float64(alphabet) / 8
	for i := range tokens {
		v := int(rng.ExpFloat64()*scale) % alphabet
		tokens[i] = T(v + offset)
	}
	return tokens
}

// GenerateUniformTokens returns n tokens drawn uniformly from [offset, offset+alphabet).
func GenerateUniformTokens[T constraints.Integer](seed int64, n int, alphabet int, offset int) []T {
	rng := rand.New(rand.NewSource(seed))
	tokens := make([]T, n)
	for i := range tokens {
		tokens[i] = T(rng.Intn(alphabet) + offset)
	}
	return tokens
}

// WriteTempFile writes data into a file under t.TempDir and returns its path.
func WriteTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0666); err != nil {
		t.Fatalf("error writing test file : %v", err)
	}
	return path
}

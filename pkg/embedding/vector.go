package embedding

import (
	"encoding/binary"
	"math"
)

// EncodeVector serializes a vector as contiguous little-endian float64
// values. This is the on-disk format of the insights.embedding column;
// dimension is implicit in the byte length.
func EncodeVector(vec []float64) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// DecodeVector parses a little-endian float64 blob. Returns nil for empty
// or truncated blobs.
func DecodeVector(buf []byte) []float64 {
	if len(buf) == 0 || len(buf)%8 != 0 {
		return nil
	}
	vec := make([]float64, len(buf)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}

// Cosine returns the cosine similarity of a and b, or 0 when either vector
// is empty, zero-length in norm, or the dimensions disagree.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

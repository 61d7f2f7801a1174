package store

import (
	"encoding/binary"
	"math"
)

// Cosine returns the cosine similarity of q and v: dot(q, v) / (|q|·|v|),
// in [-1, 1]. Returns 0 for mismatched lengths or zero-magnitude inputs.
func Cosine(q, v []float64) float64 {
	if len(q) != len(v) || len(q) == 0 {
		return 0
	}
	var dot, qq, vv float64
	for i := range q {
		dot += q[i] * v[i]
		qq += q[i] * q[i]
		vv += v[i] * v[i]
	}
	if qq == 0 || vv == 0 {
		return 0
	}
	return dot / (math.Sqrt(qq) * math.Sqrt(vv))
}

// Float32sToFloat64s widens s for decimal storage and scanning.
func Float32sToFloat64s(s []float32) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}

// Float32sToBytes serializes s as packed little-endian IEEE 754 float32,
// the raw layout the vector index expects.
func Float32sToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

// BytesToFloat32s is the inverse of Float32sToBytes.
func BytesToFloat32s(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// distanceToSimilarity converts an engine cosine distance to the contract's
// higher-is-better similarity score. Both backends must agree on this
// convention for their rankings to be interchangeable.
func distanceToSimilarity(distance float64) float64 {
	return 1 - distance
}

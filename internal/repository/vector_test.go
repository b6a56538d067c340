package repository

import (
	"math"
	"testing"
)

func TestVectorRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
	}{
		{"empty", []float32{}},
		{"single", []float32{0.5}},
		{"typical", []float32{0.1, -0.2, 0.3, 1.0, -1.0}},
		{"extremes", []float32{math.MaxFloat32, math.SmallestNonzeroFloat32, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeVector(EncodeVector(tt.vector))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(decoded) != len(tt.vector) {
				t.Fatalf("expected %d components, got %d", len(tt.vector), len(decoded))
			}
			for i := range tt.vector {
				if math.Float32bits(decoded[i]) != math.Float32bits(tt.vector[i]) {
					t.Errorf("component %d not bit-identical: %v vs %v", i, decoded[i], tt.vector[i])
				}
			}
		})
	}
}

func TestDecodeVector_BadLength(t *testing.T) {
	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for blob length not divisible by 4")
	}
}

func TestEncodeVector_LittleEndian(t *testing.T) {
	encoded := EncodeVector([]float32{1.0})
	// float32(1.0) is 0x3f800000; little-endian puts the zero bytes first.
	expected := []byte{0x00, 0x00, 0x80, 0x3f}
	for i := range expected {
		if encoded[i] != expected[i] {
			t.Fatalf("byte %d: expected %#x, got %#x", i, expected[i], encoded[i])
		}
	}
}

package geom

import (
	"testing"
)

func TestVector3(t *testing.T) {
	zero := NewVector3(0, 0, 0)
	if zero.Len() != 0 || zero.LenSqr() != 0 {
		t.Error("len != 0")
	}
	if *zero.Normalize() != *NewVector3(1, 0, 0) {
		t.Error("zero vector should normalize to X", zero)
	}

	x, y := NewVector3(1, 0, 0), NewVector3(0, 1, 0)
	tests := []struct {
		name      string
		got, want *Vector3
	}{
		{"add", x.Add(y), NewVector3(1, 1, 0)},
		{"sub", x.Sub(y), NewVector3(1, -1, 0)},
		{"cross", x.Cross(y), NewVector3(0, 0, 1)},
		{"scale", y.Scale(3), NewVector3(0, 3, 0)},
		{"normalize", NewVector3(0, 0, 4).Normalize(), NewVector3(0, 0, 1)},
	}
	for _, tt := range tests {
		if *tt.got != *tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if NewVector3(0.5, 1, 2).Float32() != [3]float32{0.5, 1, 2} {
		t.Error("Float32")
	}
}

func TestVector4(t *testing.T) {
	zero := NewVector4(0, 0, 0, 0)
	if zero.Len() != 0 {
		t.Error("len != 0")
	}
	if *zero.Normalize() != *NewVector4(0, 0, 0, 1) {
		t.Error("zero quaternion should normalize to identity", zero)
	}
	if NewVector4(0, 0, 2, 0).Normalize().Float32() != [4]float32{0, 0, 1, 0} {
		t.Error("Normalize")
	}
}

package core

import (
	"math"
	"testing"
)

func TestRGB_Arithmetic(t *testing.T) {
	a := NewRGB(1, 2, 3)
	b := NewRGB(0.5, 0.25, 2)

	if got := a.Add(b); got != (RGB{1.5, 2.25, 5}) {
		t.Errorf("Add: expected {1.5 2.25 5}, got %v", got)
	}
	if got := a.Subtract(b); got != (RGB{0.5, 1.75, 1}) {
		t.Errorf("Subtract: expected {0.5 1.75 1}, got %v", got)
	}
	if got := a.Multiply(2); got != (RGB{2, 4, 6}) {
		t.Errorf("Multiply: expected {2 4 6}, got %v", got)
	}
	if got := a.MultiplyRGB(b); got != (RGB{0.5, 0.5, 6}) {
		t.Errorf("MultiplyRGB: expected {0.5 0.5 6}, got %v", got)
	}
	if got := a.Sum(); got != 6 {
		t.Errorf("Sum: expected 6, got %f", got)
	}
	if got := a.Max(); got != 3 {
		t.Errorf("Max: expected 3, got %f", got)
	}
}

func TestRGB_IsZero(t *testing.T) {
	if !(RGB{}).IsZero() {
		t.Error("Expected zero triple to report IsZero")
	}
	if NewRGB(0, 0, 1e-12).IsZero() {
		t.Error("Expected non-zero triple to report !IsZero")
	}
}

func TestRGB_Clamp(t *testing.T) {
	got := NewRGB(-1, 0.5, 2).Clamp(0, 1)
	if got != (RGB{0, 0.5, 1}) {
		t.Errorf("Expected {0 0.5 1}, got %v", got)
	}
}

func TestRGB_GammaCorrect(t *testing.T) {
	got := NewRGB(0.25, 1, 0).GammaCorrect(2)
	if math.Abs(got[R]-0.5) > 1e-12 || got[G] != 1 || got[B] != 0 {
		t.Errorf("Expected {0.5 1 0}, got %v", got)
	}
}

func TestRGB_ToneMap(t *testing.T) {
	tests := []struct {
		name     string
		color    RGB
		exposure float64
		gamma    float64
		expected [3]uint8
	}{
		{"black", RGB{}, 1, 2.2, [3]uint8{0, 0, 0}},
		{"white saturates", Gray(10), 1, 2.2, [3]uint8{255, 255, 255}},
		{"linear half", Gray(0.5), 1, 0, [3]uint8{128, 128, 128}},
		{"exposure scales", NewRGB(0.25, 0.5, 1), 2, 0, [3]uint8{128, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.color.ToneMap(tt.exposure, tt.gamma)
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestRGB_ApproxEqual(t *testing.T) {
	a := NewRGB(1, 1, 1)
	if !a.ApproxEqual(NewRGB(1.0005, 0.9995, 1), 1e-3) {
		t.Error("Expected triples within tolerance to compare equal")
	}
	if a.ApproxEqual(NewRGB(1.1, 1, 1), 1e-3) {
		t.Error("Expected triples outside tolerance to compare unequal")
	}
}

package ml

import (
	"errors"
	"math"
	"testing"
)

func TestScalerFitTransform(t *testing.T) {
	matrix := [][]float64{
		{1, 10},
		{3, 20},
	}

	scaler := &Scaler{}
	if err := scaler.Fit(matrix); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	means, stds := scaler.Stats()
	if means[0] != 2 || means[1] != 15 {
		t.Fatalf("unexpected means: %v", means)
	}
	if stds[0] != 1 || stds[1] != 5 {
		t.Fatalf("unexpected stds: %v", stds)
	}

	scaled, err := scaler.Transform([]float64{1, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaled[0] != -1 || scaled[1] != -1 {
		t.Fatalf("unexpected scaled row: %v", scaled)
	}
}

func TestScalerUsesFitTimeStats(t *testing.T) {
	scaler := &Scaler{}
	if err := scaler.Fit([][]float64{{0}, {2}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A row far outside the training range still scales against the
	// training mean/std, never against itself.
	scaled, err := scaler.Transform([]float64{101})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaled[0] != 100 {
		t.Fatalf("expected z-score 100, got %v", scaled[0])
	}
}

func TestScalerTransformIdempotent(t *testing.T) {
	scaler := &Scaler{}
	if err := scaler.Fit([][]float64{{1, 5}, {3, 9}, {2, 7}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := []float64{2.5, 6}
	first, err := scaler.Transform(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := scaler.Transform(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("transform not idempotent at %d: %v vs %v", i, first[i], second[i])
		}
	}
	if row[0] != 2.5 || row[1] != 6 {
		t.Fatalf("input row mutated: %v", row)
	}
}

func TestScalerNotFitted(t *testing.T) {
	scaler := &Scaler{}
	if _, err := scaler.Transform([]float64{1}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
}

func TestScalerDegenerateColumnZeroEmit(t *testing.T) {
	matrix := [][]float64{
		{1, 7},
		{2, 7},
		{3, 7},
	}

	scaler := &Scaler{}
	if err := scaler.Fit(matrix); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cols := scaler.DegenerateColumns()
	if len(cols) != 1 || cols[0] != 1 {
		t.Fatalf("expected degenerate column 1, got %v", cols)
	}

	scaled, err := scaler.Transform([]float64{2, 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaled[1] != 0 {
		t.Fatalf("expected 0 for degenerate column, got %v", scaled[1])
	}
	for _, v := range scaled {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("scaled value is not finite: %v", scaled)
		}
	}
}

func TestScalerRejectDegenerate(t *testing.T) {
	scaler := &Scaler{RejectDegenerate: true}
	err := scaler.Fit([][]float64{{1, 7}, {2, 7}})
	if !errors.Is(err, ErrDegenerateColumn) {
		t.Fatalf("expected ErrDegenerateColumn, got %v", err)
	}
	if scaler.Fitted() {
		t.Fatal("scaler should not be fitted after rejection")
	}
}

package ml

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotFitted means Transform or Predict was called before Fit.
	ErrNotFitted = errors.New("not fitted")
	// ErrDegenerateColumn means a feature column has zero variance and the
	// scaler was configured to reject such columns.
	ErrDegenerateColumn = errors.New("degenerate feature column")
)

// Scaler applies z-score normalization using statistics captured at fit
// time. Transform never recomputes statistics from its input, so a single
// incoming patient row is normalized exactly like the training matrix.
//
// A zero-variance column cannot be divided by its std. Default policy:
// keep the column and emit 0 for it at transform time, consistently at fit
// and at inference. With RejectDegenerate set, Fit fails instead.
type Scaler struct {
	RejectDegenerate bool

	means      []float64
	stds       []float64
	degenerate []int
}

// Fit computes per-column mean and population standard deviation over all
// rows of the training matrix.
func (s *Scaler) Fit(matrix [][]float64) error {
	if len(matrix) == 0 {
		return errors.New("training matrix is empty")
	}
	width := len(matrix[0])
	if width == 0 {
		return errors.New("training matrix has no columns")
	}
	for i, row := range matrix {
		if len(row) != width {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), width)
		}
	}

	n := float64(len(matrix))
	means := make([]float64, width)
	for _, row := range matrix {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}

	stds := make([]float64, width)
	for _, row := range matrix {
		for j, v := range row {
			diff := v - means[j]
			stds[j] += diff * diff
		}
	}
	var degenerate []int
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			degenerate = append(degenerate, j)
		}
	}

	if len(degenerate) > 0 && s.RejectDegenerate {
		return fmt.Errorf("%w: columns %v", ErrDegenerateColumn, degenerate)
	}

	s.means = means
	s.stds = stds
	s.degenerate = degenerate
	return nil
}

// Transform returns (value - mean) / std per column using the stored
// fit-time statistics. Zero-variance columns map to 0.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, ErrNotFitted
	}
	if len(row) != len(s.means) {
		return nil, fmt.Errorf("row has %d values, want %d", len(row), len(s.means))
	}

	scaled := make([]float64, len(row))
	for j, v := range row {
		if s.stds[j] == 0 {
			scaled[j] = 0
			continue
		}
		scaled[j] = (v - s.means[j]) / s.stds[j]
	}
	return scaled, nil
}

// TransformMatrix transforms every row with the same fitted statistics.
func (s *Scaler) TransformMatrix(matrix [][]float64) ([][]float64, error) {
	scaled := make([][]float64, len(matrix))
	for i, row := range matrix {
		out, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		scaled[i] = out
	}
	return scaled, nil
}

// Fitted reports whether Fit has completed.
func (s *Scaler) Fitted() bool {
	return s.means != nil
}

// DegenerateColumns returns the indexes of zero-variance columns found at
// fit time.
func (s *Scaler) DegenerateColumns() []int {
	out := make([]int, len(s.degenerate))
	copy(out, s.degenerate)
	return out
}

// Stats returns copies of the fitted per-column means and stds.
func (s *Scaler) Stats() (means, stds []float64) {
	means = make([]float64, len(s.means))
	stds = make([]float64, len(s.stds))
	copy(means, s.means)
	copy(stds, s.stds)
	return means, stds
}

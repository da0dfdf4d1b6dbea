package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrSingleClass means the training labels contain fewer than two distinct
// classes; a linear classifier cannot be trained on one class.
var ErrSingleClass = errors.New("insufficient class diversity")

// SGDConfig holds the gradient-descent hyperparameters.
type SGDConfig struct {
	Epochs       int
	LearningRate float64
	BatchSize    int
}

// DefaultSGDConfig matches the defaults used by the training CLI.
func DefaultSGDConfig() SGDConfig {
	return SGDConfig{
		Epochs:       200,
		LearningRate: 0.1,
		BatchSize:    32,
	}
}

// LogisticRegression is a binary linear classifier. The decision function
// is sigmoid(dot(weights, x) + bias); label 1 iff probability >= 0.5.
type LogisticRegression struct {
	weights []float64
	bias    float64
}

// Train runs mini-batch SGD on log-loss over the scaled training matrix.
// Gradients: dL/dw_i = (p-y)*x_i, dL/db = (p-y). Initial weights come from
// a fixed seed so a given dataset always yields the same fitted model.
func (lr *LogisticRegression) Train(features [][]float64, labels []int, cfg SGDConfig) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), width)
		}
	}
	if !hasBothClasses(labels) {
		return ErrSingleClass
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = DefaultSGDConfig().Epochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultSGDConfig().LearningRate
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultSGDConfig().BatchSize
	}

	rng := rand.New(rand.NewSource(42))
	weights := make([]float64, width)
	for i := range weights {
		weights[i] = rng.Float64()*0.1 - 0.05
	}
	bias := 0.0

	n := len(features)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for start := 0; start < n; start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > n {
				end = n
			}

			dw := make([]float64, width)
			db := 0.0
			for i := start; i < end; i++ {
				p := sigmoid(dot(weights, features[i]) + bias)
				err := p - float64(labels[i])
				for j, xj := range features[i] {
					dw[j] += err * xj
				}
				db += err
			}

			batchLen := float64(end - start)
			for j := range weights {
				weights[j] -= cfg.LearningRate * (dw[j] / batchLen)
			}
			bias -= cfg.LearningRate * (db / batchLen)
		}
	}

	lr.weights = weights
	lr.bias = bias
	return nil
}

// Predict returns the binary label and the probability of the positive
// class for one scaled feature row.
func (lr *LogisticRegression) Predict(features []float64) (int, float64, error) {
	if !lr.Trained() {
		return 0, 0, ErrNotFitted
	}
	if len(features) != len(lr.weights) {
		return 0, 0, fmt.Errorf("row has %d values, want %d", len(features), len(lr.weights))
	}

	p := sigmoid(dot(lr.weights, features) + lr.bias)
	label := 0
	if p >= 0.5 {
		label = 1
	}
	return label, p, nil
}

// Trained reports whether Train has completed.
func (lr *LogisticRegression) Trained() bool {
	return lr.weights != nil
}

// Loss computes mean binary cross-entropy over a scaled dataset.
func (lr *LogisticRegression) Loss(features [][]float64, labels []int) (float64, error) {
	if !lr.Trained() {
		return 0, ErrNotFitted
	}
	if len(features) == 0 || len(features) != len(labels) {
		return 0, errors.New("features and labels size mismatch")
	}

	total := 0.0
	for i, row := range features {
		p := sigmoid(dot(lr.weights, row) + lr.bias)
		p = clamp(p, 1e-9, 1-1e-9)
		y := float64(labels[i])
		total += -(y*math.Log(p) + (1-y)*math.Log(1-p))
	}
	return total / float64(len(features)), nil
}

func hasBothClasses(labels []int) bool {
	first := labels[0]
	for _, label := range labels[1:] {
		if label != first {
			return true
		}
	}
	return false
}

func dot(w, x []float64) float64 {
	sum := 0.0
	for i, wi := range w {
		sum += wi * x[i]
	}
	return sum
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

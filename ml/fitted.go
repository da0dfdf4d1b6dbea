package ml

import (
	"fmt"
	"time"

	"heartguard/dataset"
)

// TrainConfig controls the full fit pipeline (scaler + classifier).
type TrainConfig struct {
	Epochs           int     `yaml:"epochs"`
	LearningRate     float64 `yaml:"learning_rate"`
	BatchSize        int     `yaml:"batch_size"`
	RejectDegenerate bool    `yaml:"reject_degenerate"`
}

// SGD returns the gradient-descent portion of the config.
func (c TrainConfig) SGD() SGDConfig {
	return SGDConfig{
		Epochs:       c.Epochs,
		LearningRate: c.LearningRate,
		BatchSize:    c.BatchSize,
	}
}

// Prediction is the outcome for one patient row.
type Prediction struct {
	Label       int     `json:"label"`
	Probability float64 `json:"probability"`
}

// FittedModel bundles the fitted scaler and classifier with the schema
// they were trained against. It is built once by Fit and immutable
// afterwards, so concurrent Assess calls need no locking. Callers pass it
// by reference instead of reaching for process-wide state.
type FittedModel struct {
	scaler     *Scaler
	classifier *LogisticRegression
	schema     []string
	rows       int
	trainedAt  time.Time
}

// Fit runs the startup pipeline exactly once: scale-fit over the training
// matrix, then classifier training on the scaled matrix.
func Fit(ds *dataset.Dataset, cfg TrainConfig) (*FittedModel, error) {
	matrix := ds.Features()
	labels := ds.Labels()

	scaler := &Scaler{RejectDegenerate: cfg.RejectDegenerate}
	if err := scaler.Fit(matrix); err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	scaled, err := scaler.TransformMatrix(matrix)
	if err != nil {
		return nil, fmt.Errorf("transform training matrix: %w", err)
	}

	classifier := &LogisticRegression{}
	if err := classifier.Train(scaled, labels, cfg.SGD()); err != nil {
		return nil, fmt.Errorf("train classifier: %w", err)
	}

	return &FittedModel{
		scaler:     scaler,
		classifier: classifier,
		schema:     dataset.FeatureColumns(),
		rows:       ds.Len(),
		trainedAt:  time.Now().UTC(),
	}, nil
}

// Assess normalizes one raw feature row with the fit-time statistics and
// scores it.
func (m *FittedModel) Assess(row []float64) (Prediction, error) {
	if len(row) != len(m.schema) {
		return Prediction{}, fmt.Errorf("row has %d values, want %d", len(row), len(m.schema))
	}
	scaled, err := m.scaler.Transform(row)
	if err != nil {
		return Prediction{}, err
	}
	label, p, err := m.classifier.Predict(scaled)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Label: label, Probability: p}, nil
}

// Schema returns the ordered feature names the model was trained against.
func (m *FittedModel) Schema() []string {
	schema := make([]string, len(m.schema))
	copy(schema, m.schema)
	return schema
}

// Rows returns the number of training rows.
func (m *FittedModel) Rows() int {
	return m.rows
}

// TrainedAt returns when the fit pipeline completed.
func (m *FittedModel) TrainedAt() time.Time {
	return m.trainedAt
}

// DegenerateColumns returns the names of zero-variance training columns.
func (m *FittedModel) DegenerateColumns() []string {
	var names []string
	for _, idx := range m.scaler.DegenerateColumns() {
		names = append(names, m.schema[idx])
	}
	return names
}

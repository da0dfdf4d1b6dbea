package ml

import (
	"errors"
	"math"
	"math/rand"

	"heartguard/dataset"
)

// Metrics summarizes holdout evaluation of a trained classifier.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	TestRows  int     `json:"test_rows"`
	TrainRows int     `json:"train_rows"`
}

// SplitDataset shuffles with a fixed seed and splits into train and test
// partitions.
func SplitDataset(features [][]float64, labels []int, testRatio float64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rnd := rand.New(rand.NewSource(42))
	indices := rnd.Perm(len(features))

	split := int(math.Round(float64(len(features)) * (1 - testRatio)))
	for i, idx := range indices {
		if i < split {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, labels[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, labels[idx])
		}
	}
	return trainX, trainY, testX, testY
}

// EvaluateHoldout fits a throwaway scaler+classifier on a train partition
// of ds and scores it on the held-out partition. The deployed FittedModel
// is trained on the full dataset; this reports how the same configuration
// generalizes.
func EvaluateHoldout(ds *dataset.Dataset, cfg TrainConfig, testRatio float64) (Metrics, error) {
	trainX, trainY, testX, testY := SplitDataset(ds.Features(), ds.Labels(), testRatio)
	if len(trainX) == 0 || len(testX) == 0 {
		return Metrics{}, errors.New("not enough rows to split")
	}

	scaler := &Scaler{RejectDegenerate: cfg.RejectDegenerate}
	if err := scaler.Fit(trainX); err != nil {
		return Metrics{}, err
	}
	scaledTrain, err := scaler.TransformMatrix(trainX)
	if err != nil {
		return Metrics{}, err
	}

	classifier := &LogisticRegression{}
	if err := classifier.Train(scaledTrain, trainY, cfg.SGD()); err != nil {
		return Metrics{}, err
	}

	var correct, truePositive, predictedPositive, actualPositive int
	for i, row := range testX {
		scaled, err := scaler.Transform(row)
		if err != nil {
			return Metrics{}, err
		}
		label, _, err := classifier.Predict(scaled)
		if err != nil {
			return Metrics{}, err
		}
		if label == testY[i] {
			correct++
		}
		if label == 1 {
			predictedPositive++
		}
		if testY[i] == 1 {
			actualPositive++
			if label == 1 {
				truePositive++
			}
		}
	}

	metrics := Metrics{
		Accuracy:  float64(correct) / float64(len(testX)),
		TestRows:  len(testX),
		TrainRows: len(trainX),
	}
	if predictedPositive > 0 {
		metrics.Precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		metrics.Recall = float64(truePositive) / float64(actualPositive)
	}
	return metrics, nil
}

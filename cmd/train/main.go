package main

import (
	"flag"
	"fmt"
	"log"

	"heartguard/dataset"
	"heartguard/ml"
)

func main() {
	dataPath := flag.String("data", "./data/heart.csv", "training CSV path")
	encoding := flag.String("encoding", "utf-8", "CSV encoding: utf-8, latin1, gbk")
	epochs := flag.Int("epochs", 200, "SGD epochs")
	learningRate := flag.Float64("lr", 0.1, "learning rate")
	batchSize := flag.Int("batch", 32, "mini-batch size")
	testRatio := flag.Float64("test_ratio", 0.2, "holdout ratio")
	rejectDegenerate := flag.Bool("reject_degenerate", false, "fail on zero-variance feature columns")
	flag.Parse()

	ds, err := dataset.Load(*dataPath, dataset.WithEncoding(*encoding))
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	negative, positive := ds.ClassCounts()
	log.Printf("loaded %d rows (%d positive, %d negative)", ds.Len(), positive, negative)

	cfg := ml.TrainConfig{
		Epochs:           *epochs,
		LearningRate:     *learningRate,
		BatchSize:        *batchSize,
		RejectDegenerate: *rejectDegenerate,
	}

	model, err := ml.Fit(ds, cfg)
	if err != nil {
		log.Fatalf("failed to fit model: %v", err)
	}
	if cols := model.DegenerateColumns(); len(cols) > 0 {
		log.Printf("warning: zero-variance columns %v emit 0 after scaling", cols)
	}

	metrics, err := ml.EvaluateHoldout(ds, cfg, *testRatio)
	if err != nil {
		log.Fatalf("failed to evaluate: %v", err)
	}

	fmt.Printf("accuracy=%.2f precision=%.2f recall=%.2f (train=%d test=%d)\n",
		metrics.Accuracy, metrics.Precision, metrics.Recall, metrics.TrainRows, metrics.TestRows)
}

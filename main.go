package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"heartguard/dataset"
	"heartguard/db"
	qhttp "heartguard/http"
	"heartguard/logging"
	"heartguard/ml"
	"heartguard/monitoring"
)

type Config struct {
	Dataset struct {
		Path     string `yaml:"path"`
		Encoding string `yaml:"encoding"`
	} `yaml:"dataset"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log      logging.Config `yaml:"log"`
	Training struct {
		Epochs           int     `yaml:"epochs"`
		LearningRate     float64 `yaml:"learning_rate"`
		BatchSize        int     `yaml:"batch_size"`
		RejectDegenerate bool    `yaml:"reject_degenerate"`
		TestRatio        float64 `yaml:"test_ratio"`
	} `yaml:"training"`
}

func (c *Config) trainConfig() ml.TrainConfig {
	return ml.TrainConfig{
		Epochs:           c.Training.Epochs,
		LearningRate:     c.Training.LearningRate,
		BatchSize:        c.Training.BatchSize,
		RejectDegenerate: c.Training.RejectDegenerate,
	}
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		logging.Init(logging.Config{})
		logging.L().Fatal("failed to load config", zap.Error(err))
	}

	logging.Init(config.Log)
	defer logging.Sync()

	// 2. Initialize database
	if err := db.InitDB(config.Database.Path); err != nil {
		logging.L().Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	logging.L().Info("database initialized", zap.String("path", config.Database.Path))

	// 3. Load dataset and fit the model once
	model, info := fitAtStartup(config)

	hub := monitoring.NewHub()
	go hub.Start()

	qhttp.SetModel(model)
	qhttp.SetModelInfo(info)
	qhttp.SetMonitor(hub)

	// 4. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           config.Http.Port,
		Timeout:        config.Http.Timeout,
		AllowedOrigins: config.Http.AllowedOrigins,
	})
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logging.L().Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	stopWatch := watchConfig("config.yaml")

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.L().Info("shutting down")

	stopWatch()
	hub.Stop()
	if err := server.Stop(); err != nil {
		logging.L().Warn("server forced to shutdown", zap.Error(err))
	}

	logging.L().Info("exiting")
}

// fitAtStartup runs the load → scale → train pipeline exactly once. Any
// failure is fatal: there is nothing to serve without a fitted model.
func fitAtStartup(config *Config) (*ml.FittedModel, qhttp.ModelInfo) {
	ds, err := dataset.Load(config.Dataset.Path, dataset.WithEncoding(config.Dataset.Encoding))
	if err != nil {
		if errors.Is(err, dataset.ErrMissing) {
			logging.L().Fatal("dataset file is missing; place the training CSV at the configured path and restart",
				zap.String("path", config.Dataset.Path))
		}
		logging.L().Fatal("failed to load dataset", zap.Error(err))
	}
	negative, positive := ds.ClassCounts()
	logging.L().Info("dataset loaded",
		zap.Int("rows", ds.Len()),
		zap.Int("positive", positive),
		zap.Int("negative", negative),
	)

	model, err := ml.Fit(ds, config.trainConfig())
	if err != nil {
		logging.L().Fatal("failed to fit model", zap.Error(err))
	}
	if cols := model.DegenerateColumns(); len(cols) > 0 {
		logging.L().Warn("zero-variance feature columns; they contribute nothing to the decision",
			zap.Strings("columns", cols))
	}

	metrics, err := ml.EvaluateHoldout(ds, config.trainConfig(), config.Training.TestRatio)
	if err != nil {
		logging.L().Warn("holdout evaluation failed", zap.Error(err))
	} else {
		logging.L().Info("holdout evaluation",
			zap.Float64("accuracy", metrics.Accuracy),
			zap.Float64("precision", metrics.Precision),
			zap.Float64("recall", metrics.Recall),
		)
	}

	if err := db.ImportDataset(ds); err != nil {
		logging.L().Warn("failed to import dataset into store", zap.Error(err))
	}
	if err := db.SaveTrainingLog(db.TrainingLog{
		ModelName:  "logistic_regression",
		Accuracy:   metrics.Accuracy,
		Precision:  metrics.Precision,
		Recall:     metrics.Recall,
		TrainedAt:  model.TrainedAt(),
		DataPoints: model.Rows(),
	}); err != nil {
		logging.L().Warn("failed to save training log", zap.Error(err))
	}

	return model, qhttp.ModelInfo{
		Features:          len(model.Schema()),
		TrainingRows:      model.Rows(),
		TrainedAt:         model.TrainedAt(),
		DegenerateColumns: model.DegenerateColumns(),
		Metrics:           metrics,
	}
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// watchConfig re-reads config.yaml on change and applies the log level.
// Nothing else hot-reloads; the model lifecycle is load-once per process.
func watchConfig(path string) (stop func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.L().Warn("config watcher unavailable", zap.Error(err))
		return func() {}
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logging.L().Warn("config watcher unavailable", zap.Error(err))
		watcher.Close()
		return func() {}
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filepath.Base(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				config, err := loadConfig(path)
				if err != nil {
					logging.L().Warn("config reload failed", zap.Error(err))
					continue
				}
				logging.SetLevel(config.Log.Level)
				logging.L().Info("log level applied from config", zap.String("level", config.Log.Level))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.L().Warn("config watcher error", zap.Error(err))
			}
		}
	}()

	return func() { watcher.Close() }
}

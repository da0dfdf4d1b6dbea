package db

import (
	"database/sql"
	"errors"
	"time"

	"heartguard/dataset"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB initializes the SQLite database
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS records (
        id INTEGER PRIMARY KEY,
        age REAL,
        sex REAL,
        cp REAL,
        trestbps REAL,
        chol REAL,
        fbs REAL,
        restecg REAL,
        thalach REAL,
        exang REAL,
        oldpeak REAL,
        slope REAL,
        ca REAL,
        thal REAL,
        target INTEGER
    );
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY,
        model_name VARCHAR(50),
        accuracy REAL,
        precision REAL,
        recall REAL,
        trained_at DATETIME,
        data_points INTEGER
    );
    `

	_, err = database.Exec(query)
	return err
}

// Close releases the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// ImportDataset replaces the records table with the loaded training rows.
func ImportDataset(ds *dataset.Dataset) error {
	if database == nil {
		return errors.New("database not initialized")
	}

	tx, err := database.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM records`); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(`
        INSERT INTO records (
            age, sex, cp, trestbps, chol, fbs, restecg,
            thalach, exang, oldpeak, slope, ca, thal, target
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	labels := ds.Labels()
	for i := 0; i < ds.Len(); i++ {
		args := make([]interface{}, 0, dataset.NumFeatures+1)
		for _, v := range ds.Row(i) {
			args = append(args, v)
		}
		args = append(args, labels[i])
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// DatasetStats summarizes the imported training data.
type DatasetStats struct {
	Rows     int `json:"rows"`
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// QueryDatasetStats returns row count and class balance of the records table.
func QueryDatasetStats() (DatasetStats, error) {
	if database == nil {
		return DatasetStats{}, errors.New("database not initialized")
	}

	var stats DatasetStats
	err := database.QueryRow(`
        SELECT COUNT(*),
               COALESCE(SUM(CASE WHEN target = 1 THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(CASE WHEN target = 0 THEN 1 ELSE 0 END), 0)
        FROM records
    `).Scan(&stats.Rows, &stats.Positive, &stats.Negative)
	if err != nil {
		return DatasetStats{}, err
	}
	return stats, nil
}

type TrainingLog struct {
	ModelName  string    `json:"model_name"`
	Accuracy   float64   `json:"accuracy"`
	Precision  float64   `json:"precision"`
	Recall     float64   `json:"recall"`
	TrainedAt  time.Time `json:"trained_at"`
	DataPoints int       `json:"data_points"`
}

// SaveTrainingLog appends one training-run entry.
func SaveTrainingLog(entry TrainingLog) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO training_log (
            model_name, accuracy, precision, recall, trained_at, data_points
        ) VALUES (?, ?, ?, ?, ?, ?)
    `,
		entry.ModelName,
		entry.Accuracy,
		entry.Precision,
		entry.Recall,
		entry.TrainedAt,
		entry.DataPoints,
	)
	return err
}

// LoadTrainingLog returns training runs, newest first.
func LoadTrainingLog() ([]TrainingLog, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT model_name, accuracy, precision, recall, trained_at, data_points
        FROM training_log
        ORDER BY trained_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		if err := rows.Scan(&log.ModelName, &log.Accuracy, &log.Precision, &log.Recall, &log.TrainedAt, &log.DataPoints); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

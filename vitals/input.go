// Package vitals maps named patient measurements onto the ordered feature
// row the classifier was trained against.
package vitals

import (
	"errors"
	"fmt"
	"math"

	"heartguard/dataset"
)

// ErrUnknownCategory means a categorical field carries a label outside its
// closed set.
var ErrUnknownCategory = errors.New("unknown category")

// Closed category tables. Codes follow the training dataset encoding; the
// builder rejects labels outside these sets instead of guessing.
var (
	sexCodes = map[string]float64{
		"female": 0,
		"male":   1,
	}
	chestPainCodes = map[string]float64{
		"typical_angina":  0,
		"atypical_angina": 1,
		"non_anginal":     2,
		"asymptomatic":    3,
	}
	yesNoCodes = map[string]float64{
		"no":  0,
		"yes": 1,
	}
	restingECGCodes = map[string]float64{
		"normal":           0,
		"st_t_abnormality": 1,
		"lv_hypertrophy":   2,
	}
	slopeCodes = map[string]float64{
		"upsloping":   0,
		"flat":        1,
		"downsloping": 2,
	}
	// thal codes are offset by one in the source dataset.
	thalassemiaCodes = map[string]float64{
		"normal":            1,
		"fixed_defect":      2,
		"reversible_defect": 3,
	}
)

// PatientVitals is one patient's clinical measurements, as collected by a
// form or API client. Ephemeral: built per request, never retained.
type PatientVitals struct {
	Age               int     `json:"age"`
	Sex               string  `json:"sex"`
	ChestPainType     string  `json:"chest_pain_type"`
	RestingBP         int     `json:"resting_bp"`
	Cholesterol       int     `json:"cholesterol"`
	FastingBloodSugar string  `json:"fasting_blood_sugar_over_120"`
	RestingECG        string  `json:"resting_ecg"`
	MaxHeartRate      int     `json:"max_heart_rate"`
	ExerciseAngina    string  `json:"exercise_angina"`
	STDepression      float64 `json:"st_depression"`
	Slope             string  `json:"slope"`
	MajorVessels      int     `json:"major_vessels"`
	Thalassemia       string  `json:"thalassemia"`
}

// Validate enforces the clinical input domains. Every field must carry a
// value; there is no defaulting of missing slots.
func (v PatientVitals) Validate() error {
	if v.Age < 1 || v.Age > 120 {
		return fmt.Errorf("age %d out of range [1, 120]", v.Age)
	}
	if v.RestingBP < 50 || v.RestingBP > 250 {
		return fmt.Errorf("resting_bp %d out of range [50, 250]", v.RestingBP)
	}
	if v.Cholesterol < 100 || v.Cholesterol > 600 {
		return fmt.Errorf("cholesterol %d out of range [100, 600]", v.Cholesterol)
	}
	if v.MaxHeartRate < 60 || v.MaxHeartRate > 220 {
		return fmt.Errorf("max_heart_rate %d out of range [60, 220]", v.MaxHeartRate)
	}
	if v.STDepression < 0.0 || v.STDepression > 10.0 {
		return fmt.Errorf("st_depression %.1f out of range [0.0, 10.0]", v.STDepression)
	}
	if v.MajorVessels < 0 || v.MajorVessels > 3 {
		return fmt.Errorf("major_vessels %d out of range [0, 3]", v.MajorVessels)
	}

	for _, check := range []struct {
		field string
		value string
		codes map[string]float64
	}{
		{"sex", v.Sex, sexCodes},
		{"chest_pain_type", v.ChestPainType, chestPainCodes},
		{"fasting_blood_sugar_over_120", v.FastingBloodSugar, yesNoCodes},
		{"resting_ecg", v.RestingECG, restingECGCodes},
		{"exercise_angina", v.ExerciseAngina, yesNoCodes},
		{"slope", v.Slope, slopeCodes},
		{"thalassemia", v.Thalassemia, thalassemiaCodes},
	} {
		if _, ok := check.codes[check.value]; !ok {
			return fmt.Errorf("%w: %s=%q", ErrUnknownCategory, check.field, check.value)
		}
	}
	return nil
}

// FeatureRow validates the vitals and returns the 13 values in the exact
// training schema order: age, sex, cp, trestbps, chol, fbs, restecg,
// thalach, exang, oldpeak, slope, ca, thal.
func (v PatientVitals) FeatureRow() ([]float64, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	row := []float64{
		float64(v.Age),
		sexCodes[v.Sex],
		chestPainCodes[v.ChestPainType],
		float64(v.RestingBP),
		float64(v.Cholesterol),
		yesNoCodes[v.FastingBloodSugar],
		restingECGCodes[v.RestingECG],
		float64(v.MaxHeartRate),
		yesNoCodes[v.ExerciseAngina],
		v.STDepression,
		slopeCodes[v.Slope],
		float64(v.MajorVessels),
		thalassemiaCodes[v.Thalassemia],
	}
	if len(row) != dataset.NumFeatures {
		return nil, fmt.Errorf("built row has %d values, want %d", len(row), dataset.NumFeatures)
	}
	return row, nil
}

// Categories exposes the closed label sets so a form UI can render its
// selectors from the source of truth.
func Categories() map[string][]string {
	return map[string][]string{
		"sex":                          keysOf(sexCodes),
		"chest_pain_type":              keysOf(chestPainCodes),
		"fasting_blood_sugar_over_120": keysOf(yesNoCodes),
		"resting_ecg":                  keysOf(restingECGCodes),
		"exercise_angina":              keysOf(yesNoCodes),
		"slope":                        keysOf(slopeCodes),
		"thalassemia":                  keysOf(thalassemiaCodes),
	}
}

func keysOf(codes map[string]float64) []string {
	// Ordered by code so selectors render in dataset order.
	out := make([]string, len(codes))
	min := math.Inf(1)
	for _, code := range codes {
		if code < min {
			min = code
		}
	}
	for label, code := range codes {
		out[int(code-min)] = label
	}
	return out
}

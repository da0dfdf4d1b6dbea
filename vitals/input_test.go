package vitals

import (
	"errors"
	"testing"
)

func validVitals() PatientVitals {
	return PatientVitals{
		Age:               54,
		Sex:               "male",
		ChestPainType:     "atypical_angina",
		RestingBP:         130,
		Cholesterol:       240,
		FastingBloodSugar: "no",
		RestingECG:        "normal",
		MaxHeartRate:      150,
		ExerciseAngina:    "no",
		STDepression:      1.2,
		Slope:             "flat",
		MajorVessels:      0,
		Thalassemia:       "normal",
	}
}

func TestValidateAcceptsBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*PatientVitals)
	}{
		{"age lower", func(v *PatientVitals) { v.Age = 1 }},
		{"age upper", func(v *PatientVitals) { v.Age = 120 }},
		{"bp lower", func(v *PatientVitals) { v.RestingBP = 50 }},
		{"bp upper", func(v *PatientVitals) { v.RestingBP = 250 }},
		{"chol lower", func(v *PatientVitals) { v.Cholesterol = 100 }},
		{"chol upper", func(v *PatientVitals) { v.Cholesterol = 600 }},
		{"hr lower", func(v *PatientVitals) { v.MaxHeartRate = 60 }},
		{"hr upper", func(v *PatientVitals) { v.MaxHeartRate = 220 }},
		{"st lower", func(v *PatientVitals) { v.STDepression = 0.0 }},
		{"st upper", func(v *PatientVitals) { v.STDepression = 10.0 }},
		{"vessels lower", func(v *PatientVitals) { v.MajorVessels = 0 }},
		{"vessels upper", func(v *PatientVitals) { v.MajorVessels = 3 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := validVitals()
			tc.mutate(&v)
			if err := v.Validate(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*PatientVitals)
	}{
		{"age zero", func(v *PatientVitals) { v.Age = 0 }},
		{"age too high", func(v *PatientVitals) { v.Age = 121 }},
		{"bp too low", func(v *PatientVitals) { v.RestingBP = 49 }},
		{"bp too high", func(v *PatientVitals) { v.RestingBP = 251 }},
		{"chol too low", func(v *PatientVitals) { v.Cholesterol = 99 }},
		{"chol too high", func(v *PatientVitals) { v.Cholesterol = 601 }},
		{"hr too low", func(v *PatientVitals) { v.MaxHeartRate = 59 }},
		{"hr too high", func(v *PatientVitals) { v.MaxHeartRate = 221 }},
		{"st negative", func(v *PatientVitals) { v.STDepression = -0.1 }},
		{"st too high", func(v *PatientVitals) { v.STDepression = 10.1 }},
		{"vessels negative", func(v *PatientVitals) { v.MajorVessels = -1 }},
		{"vessels too high", func(v *PatientVitals) { v.MajorVessels = 4 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := validVitals()
			tc.mutate(&v)
			if err := v.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateRejectsUnknownCategory(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*PatientVitals)
	}{
		{"sex", func(v *PatientVitals) { v.Sex = "unspecified" }},
		{"chest pain", func(v *PatientVitals) { v.ChestPainType = "sharp" }},
		{"fasting sugar", func(v *PatientVitals) { v.FastingBloodSugar = "maybe" }},
		{"resting ecg", func(v *PatientVitals) { v.RestingECG = "abnormal" }},
		{"exercise angina", func(v *PatientVitals) { v.ExerciseAngina = "" }},
		{"slope", func(v *PatientVitals) { v.Slope = "steep" }},
		{"thalassemia", func(v *PatientVitals) { v.Thalassemia = "unknown" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := validVitals()
			tc.mutate(&v)
			if err := v.Validate(); !errors.Is(err, ErrUnknownCategory) {
				t.Fatalf("expected ErrUnknownCategory, got %v", err)
			}
		})
	}
}

func TestFeatureRowOrder(t *testing.T) {
	v := PatientVitals{
		Age:               63,
		Sex:               "male",
		ChestPainType:     "asymptomatic",
		RestingBP:         145,
		Cholesterol:       233,
		FastingBloodSugar: "yes",
		RestingECG:        "lv_hypertrophy",
		MaxHeartRate:      150,
		ExerciseAngina:    "no",
		STDepression:      2.3,
		Slope:             "downsloping",
		MajorVessels:      0,
		Thalassemia:       "reversible_defect",
	}

	row, err := v.FeatureRow()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{63, 1, 3, 145, 233, 1, 2, 150, 0, 2.3, 2, 0, 3}
	if len(row) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("slot %d: expected %v, got %v", i, want[i], row[i])
		}
	}
}

func TestFeatureRowThalassemiaOffset(t *testing.T) {
	// thal codes start at 1 in the training data, not 0.
	v := validVitals()
	v.Thalassemia = "normal"
	row, err := v.FeatureRow()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row[12] != 1 {
		t.Fatalf("expected thal code 1 for normal, got %v", row[12])
	}
}

func TestFeatureRowRejectsInvalid(t *testing.T) {
	v := validVitals()
	v.Thalassemia = "bogus"
	if _, err := v.FeatureRow(); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestCategoriesOrderedByCode(t *testing.T) {
	categories := Categories()

	pain := categories["chest_pain_type"]
	wantPain := []string{"typical_angina", "atypical_angina", "non_anginal", "asymptomatic"}
	for i := range wantPain {
		if pain[i] != wantPain[i] {
			t.Fatalf("chest_pain_type order: expected %v, got %v", wantPain, pain)
		}
	}

	thal := categories["thalassemia"]
	wantThal := []string{"normal", "fixed_defect", "reversible_defect"}
	for i := range wantThal {
		if thal[i] != wantThal[i] {
			t.Fatalf("thalassemia order: expected %v, got %v", wantThal, thal)
		}
	}
}

package dataset

// FeatureColumns is the ordered clinical feature schema. Every feature row
// in the system presents values in exactly this order.
func FeatureColumns() []string {
	return []string{
		"age",
		"sex",
		"cp",
		"trestbps",
		"chol",
		"fbs",
		"restecg",
		"thalach",
		"exang",
		"oldpeak",
		"slope",
		"ca",
		"thal",
	}
}

// LabelColumn is the binary outcome column (0 = no disease, 1 = disease).
const LabelColumn = "target"

// NumFeatures is the fixed width of a feature row.
const NumFeatures = 13

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrMissing means the dataset file does not exist at the given path.
	ErrMissing = errors.New("dataset file missing")
	// ErrMalformed means the file exists but cannot be parsed into the
	// expected 13-feature + target schema.
	ErrMalformed = errors.New("dataset malformed")
)

// Dataset is an immutable training dataset: N feature rows plus a binary
// label per row. Loaded once at process start.
type Dataset struct {
	features [][]float64
	labels   []int
}

// New builds a Dataset from an in-memory matrix, copying the input. Rows
// must be schema width and labels binary.
func New(features [][]float64, labels []int) (*Dataset, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrMalformed)
	}
	if len(features) != len(labels) {
		return nil, fmt.Errorf("%w: %d rows but %d labels", ErrMalformed, len(features), len(labels))
	}

	copied := make([][]float64, len(features))
	for i, row := range features {
		if len(row) != NumFeatures {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrMalformed, i, len(row), NumFeatures)
		}
		copied[i] = make([]float64, NumFeatures)
		copy(copied[i], row)
	}
	copiedLabels := make([]int, len(labels))
	for i, label := range labels {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("%w: label %d is not 0 or 1", ErrMalformed, label)
		}
		copiedLabels[i] = label
	}
	return &Dataset{features: copied, labels: copiedLabels}, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.features)
}

// Row returns a copy of the i-th feature row.
func (d *Dataset) Row(i int) []float64 {
	row := make([]float64, NumFeatures)
	copy(row, d.features[i])
	return row
}

// Features returns a copy of the full feature matrix.
func (d *Dataset) Features() [][]float64 {
	matrix := make([][]float64, len(d.features))
	for i := range d.features {
		matrix[i] = d.Row(i)
	}
	return matrix
}

// Labels returns a copy of the label vector.
func (d *Dataset) Labels() []int {
	labels := make([]int, len(d.labels))
	copy(labels, d.labels)
	return labels
}

// ClassCounts returns how many rows carry each label.
func (d *Dataset) ClassCounts() (negative, positive int) {
	for _, label := range d.labels {
		if label == 1 {
			positive++
		} else {
			negative++
		}
	}
	return negative, positive
}

type loadOptions struct {
	decoder *encoding.Decoder
}

// Option configures Load.
type Option func(*loadOptions)

// WithEncoding selects the character encoding of the CSV file. Supported
// names: utf-8 (default), latin1 / windows-1252, gbk. Clinical exports from
// spreadsheet tools are frequently not UTF-8.
func WithEncoding(name string) Option {
	return func(o *loadOptions) {
		switch strings.ToLower(name) {
		case "", "utf-8", "utf8":
			o.decoder = nil
		case "latin1", "iso-8859-1", "windows-1252":
			o.decoder = charmap.Windows1252.NewDecoder()
		case "gbk":
			o.decoder = simplifiedchinese.GBK.NewDecoder()
		}
	}
}

// Load reads a delimited dataset with a header row from path and splits it
// into the feature matrix and label vector. Columns are resolved by header
// name and reordered to the schema order; the file must contain exactly the
// 13 feature columns plus the target column.
func Load(path string, opts ...Option) (*Dataset, error) {
	var options loadOptions
	for _, opt := range opts {
		opt(&options)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, err
	}
	defer file.Close()

	var reader io.Reader = file
	if options.decoder != nil {
		reader = transform.NewReader(file, options.decoder)
	} else {
		// Tolerate a UTF-8 BOM from spreadsheet exports.
		reader = transform.NewReader(file, unicode.UTF8BOM.NewDecoder())
	}

	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %v", ErrMalformed, err)
	}

	columnIdx, labelIdx, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var features [][]float64
	var labels []int
	for rowNum := 1; ; rowNum++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, rowNum, err)
		}

		row := make([]float64, NumFeatures)
		for i, col := range columnIdx {
			value, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", ErrMalformed, rowNum, FeatureColumns()[i], err)
			}
			row[i] = value
		}

		label, err := parseLabel(record[labelIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, rowNum, err)
		}

		features = append(features, row)
		labels = append(labels, label)
	}

	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrMalformed)
	}

	return &Dataset{features: features, labels: labels}, nil
}

func resolveColumns(header []string) (columnIdx []int, labelIdx int, err error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.ToLower(strings.TrimSpace(name))] = i
	}

	if len(positions) != NumFeatures+1 {
		return nil, 0, fmt.Errorf("%w: expected %d columns, got %d", ErrMalformed, NumFeatures+1, len(positions))
	}

	columnIdx = make([]int, NumFeatures)
	for i, name := range FeatureColumns() {
		idx, ok := positions[name]
		if !ok {
			return nil, 0, fmt.Errorf("%w: missing column %q", ErrMalformed, name)
		}
		columnIdx[i] = idx
	}

	idx, ok := positions[LabelColumn]
	if !ok {
		return nil, 0, fmt.Errorf("%w: missing column %q", ErrMalformed, LabelColumn)
	}
	return columnIdx, idx, nil
}

func parseLabel(raw string) (int, error) {
	switch strings.TrimSpace(raw) {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	default:
		return 0, fmt.Errorf("label %q is not 0 or 1", raw)
	}
}

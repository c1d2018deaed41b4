package metric

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"gosize/domain/core"
)

// Kind tags the effect model used for a metric
type Kind string

const (
	KindBoolean Kind = "boolean" // Conversion-style proportion
	KindNumeric Kind = "numeric" // Continuous outcome with known variance
	KindRatio   Kind = "ratio"   // Ratio of two per-unit sums (delta method)
)

// Kinds lists every supported kind in registration-file spelling
var Kinds = []Kind{KindBoolean, KindNumeric, KindRatio}

// Metadata keys accepted in metric_metadata
const (
	KeyProbability         = "probability"
	KeyMDE                 = "mde"
	KeyVariance            = "variance"
	KeyNumeratorMean       = "numerator_mean"
	KeyNumeratorVariance   = "numerator_variance"
	KeyDenominatorMean     = "denominator_mean"
	KeyDenominatorVariance = "denominator_variance"
	KeyCovariance          = "covariance"
)

var metadataValidate *validator.Validate

func init() {
	metadataValidate = validator.New()
}

// ============================================================================
// REGISTRATION
// ============================================================================

// Descriptor is a metric as it appears in a registration request
type Descriptor struct {
	Type     Kind               `json:"metric_type" yaml:"metric_type"`
	Metadata map[string]float64 `json:"metric_metadata" yaml:"metric_metadata"`
}

// Metric is a validated, immutable registered metric. Exactly one of the
// metadata pointers matching Kind is set.
type Metric struct {
	Kind    Kind
	Boolean *BooleanMetadata
	Numeric *NumericMetadata
	Ratio   *RatioMetadata
}

// BooleanMetadata describes a proportion metric
type BooleanMetadata struct {
	Probability float64 `validate:"gt=0,lt=1"` // Baseline success probability
	MDE         float64 `validate:"gt=0,lt=1"` // Absolute lift in probability
}

// Variance returns the Bernoulli variance at the baseline probability
func (b BooleanMetadata) Variance() float64 {
	return b.Probability * (1 - b.Probability)
}

// NumericMetadata describes a continuous metric
type NumericMetadata struct {
	Variance float64 `validate:"gt=0"` // Per-unit variance
	MDE      float64 `validate:"gt=0"` // Absolute difference in means
}

// RatioMetadata describes a ratio-of-means metric
type RatioMetadata struct {
	NumeratorMean       float64 `validate:"ne=0"`
	NumeratorVariance   float64 `validate:"gte=0"`
	DenominatorMean     float64 `validate:"ne=0"`
	DenominatorVariance float64 `validate:"gte=0"`
	Covariance          float64
	MDE                 float64 `validate:"gt=0"` // Absolute difference in the ratio
}

// Ratio returns the baseline ratio of means
func (r RatioMetadata) Ratio() float64 {
	return r.NumeratorMean / r.DenominatorMean
}

// Variance returns the delta-method variance of the per-unit ratio
func (r RatioMetadata) Variance() float64 {
	ratio := r.Ratio()
	num := r.NumeratorVariance - 2*ratio*r.Covariance + ratio*ratio*r.DenominatorVariance
	return num / (r.DenominatorMean * r.DenominatorMean)
}

// ============================================================================
// DECODING
// ============================================================================

// FromDescriptors validates a registration batch. index is used in errors so
// callers can locate the bad entry.
func FromDescriptors(descriptors []Descriptor) ([]Metric, error) {
	metrics := make([]Metric, 0, len(descriptors))
	for i, d := range descriptors {
		m, err := fromDescriptor(i, d)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

// FromDescriptor validates a single descriptor
func FromDescriptor(d Descriptor) (Metric, error) {
	return fromDescriptor(0, d)
}

func fromDescriptor(index int, d Descriptor) (Metric, error) {
	fields := newFieldReader(d.Metadata)

	switch d.Type {
	case KindBoolean:
		meta := &BooleanMetadata{
			Probability: fields.required(KeyProbability),
			MDE:         fields.required(KeyMDE),
		}
		if err := fields.finish(); err != nil {
			return Metric{}, core.NewMetricError(index, string(d.Type), err.Error())
		}
		if err := metadataValidate.Struct(meta); err != nil {
			return Metric{}, core.NewMetricError(index, string(d.Type), err.Error())
		}
		if meta.Probability+meta.MDE >= 1 {
			return Metric{}, core.NewMetricError(index, string(d.Type),
				fmt.Sprintf("probability + mde must be below 1, got %v", meta.Probability+meta.MDE))
		}
		return Metric{Kind: KindBoolean, Boolean: meta}, nil

	case KindNumeric:
		meta := &NumericMetadata{
			Variance: fields.required(KeyVariance),
			MDE:      fields.required(KeyMDE),
		}
		if err := fields.finish(); err != nil {
			return Metric{}, core.NewMetricError(index, string(d.Type), err.Error())
		}
		if err := metadataValidate.Struct(meta); err != nil {
			return Metric{}, core.NewMetricError(index, string(d.Type), err.Error())
		}
		return Metric{Kind: KindNumeric, Numeric: meta}, nil

	case KindRatio:
		meta := &RatioMetadata{
			NumeratorMean:       fields.required(KeyNumeratorMean),
			NumeratorVariance:   fields.required(KeyNumeratorVariance),
			DenominatorMean:     fields.required(KeyDenominatorMean),
			DenominatorVariance: fields.required(KeyDenominatorVariance),
			Covariance:          fields.optional(KeyCovariance),
			MDE:                 fields.required(KeyMDE),
		}
		if err := fields.finish(); err != nil {
			return Metric{}, core.NewMetricError(index, string(d.Type), err.Error())
		}
		if err := metadataValidate.Struct(meta); err != nil {
			return Metric{}, core.NewMetricError(index, string(d.Type), err.Error())
		}
		if v := meta.Variance(); !(v > 0) {
			return Metric{}, core.NewMetricError(index, string(d.Type),
				fmt.Sprintf("delta-method variance must be positive, got %v", v))
		}
		return Metric{Kind: KindRatio, Ratio: meta}, nil

	default:
		return Metric{}, fmt.Errorf("%w %q at index %d", core.ErrUnknownKind, d.Type, index)
	}
}

// fieldReader tracks which metadata keys were consumed so that missing and
// unexpected keys are both reported.
type fieldReader struct {
	values  map[string]float64
	used    map[string]bool
	missing []string
}

func newFieldReader(values map[string]float64) *fieldReader {
	return &fieldReader{values: values, used: make(map[string]bool)}
}

func (f *fieldReader) required(key string) float64 {
	v, ok := f.values[key]
	if !ok {
		f.missing = append(f.missing, key)
		return 0
	}
	f.used[key] = true
	return v
}

func (f *fieldReader) optional(key string) float64 {
	f.used[key] = true
	return f.values[key]
}

func (f *fieldReader) finish() error {
	if len(f.missing) > 0 {
		return fmt.Errorf("missing metadata %v", f.missing)
	}
	var unknown []string
	for key := range f.values {
		if !f.used[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown metadata %v", unknown)
	}
	return nil
}

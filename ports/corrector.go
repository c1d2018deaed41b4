package ports

// Corrector applies a multiple-testing correction to one family of p-values
type Corrector interface {
	// Name returns the method identifier (e.g. "fdr_bh")
	Name() string

	// Correct returns one decision per p-value, in input order. True marks a
	// rejected null hypothesis.
	Correct(pValues []float64, alpha float64) ([]bool, error)
}

// AlphaPolicy derives the stricter per-test significance level used for the
// upper search bound
type AlphaPolicy interface {
	Name() string
	Adjust(alpha float64, tests int) float64
}

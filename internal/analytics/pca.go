package analytics

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"dataexplorer/internal/dataset"
	"dataexplorer/pkg/contracts/domain"
)

// MaxPCAComponents caps the number of components regardless of width
const MaxPCAComponents = 10

var (
	// ErrInvalidComponents is returned for a component count outside the allowed range
	ErrInvalidComponents = errors.New("invalid number of components")
	// ErrSVDFailed is returned when the factorization does not converge
	ErrSVDFailed = errors.New("svd did not converge")
)

// ComponentRange returns the allowed component bounds for f, or ok=false
// when PCA preconditions are not met.
func ComponentRange(f *dataset.Frame, maxComponents int) (lo, hi int, ok bool) {
	cols, rows := completeCases(f)
	if len(cols) < 2 || len(rows) < 2 {
		return 0, 0, false
	}
	if maxComponents <= 0 || maxComponents > MaxPCAComponents {
		maxComponents = MaxPCAComponents
	}
	hi = min(maxComponents, len(cols), len(rows))
	return 2, hi, hi >= 2
}

// PCA projects the complete numeric rows of f onto their principal axes.
// Rows with any missing numeric value are left out of the fit and of the
// projection. Unmet preconditions yield a result carrying only a notice.
func PCA(f *dataset.Frame, opts domain.PCAOptions, maxComponents int) (*domain.PCAResult, error) {
	cols, rows := completeCases(f)
	if len(cols) < 2 || len(rows) < 2 {
		return &domain.PCAResult{Notice: NoticePCAPrecondition}, nil
	}

	_, hi, _ := ComponentRange(f, maxComponents)
	k := opts.Components
	if k == 0 {
		k = 2
	}
	if k < 2 || k > hi {
		return nil, fmt.Errorf("%w: %d requested, allowed range is 2 to %d", ErrInvalidComponents, k, hi)
	}

	n, p := len(rows), len(cols)
	x := mat.NewDense(n, p, nil)
	col := make([]float64, n)
	for j, c := range cols {
		for r, i := range rows {
			col[r], _ = c.Float(i)
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for r, v := range col {
			v -= mean
			if opts.Standardize {
				v /= std
			}
			x.Set(r, j, v)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, ErrSVDFailed
	}
	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)
	flipSigns(&v)

	var total float64
	for _, s := range values {
		total += s * s
	}
	explained := make([]float64, k)
	for i := 0; i < k; i++ {
		if total > 0 {
			explained[i] = Round2(values[i] * values[i] / total * 100)
		}
	}

	axes := v.Slice(0, p, 0, k)
	var scores mat.Dense
	scores.Mul(x, axes)

	result := &domain.PCAResult{
		Features:          names(cols),
		Components:        k,
		Standardized:      opts.Standardize,
		RowsUsed:          n,
		RowsDropped:       f.Len() - n,
		ExplainedVariance: explained,
		Loadings:          make([][]float64, k),
		Points:            make([]domain.PCAPoint, n),
		Scores:            make([][]float64, n),
		Rows:              rows,
	}
	for c := 0; c < k; c++ {
		result.Loadings[c] = make([]float64, p)
		for j := 0; j < p; j++ {
			result.Loadings[c][j] = v.At(j, c)
		}
	}
	for r, i := range rows {
		result.Scores[r] = mat.Row(nil, r, &scores)
		result.Points[r] = domain.PCAPoint{Row: i, PC1: scores.At(r, 0), PC2: scores.At(r, 1)}
	}
	result.Message = fmt.Sprintf("Explained variance: %s%% for the first components.", FormatArray(result.TopExplained()))
	return result, nil
}

// ScoreColumns returns PC1 and PC2 aligned with the rows of the frame the
// result was fitted on; rows left out of the fit are missing.
func ScoreColumns(r *domain.PCAResult, rows int) (*dataset.Column, *dataset.Column) {
	pc1 := make([]float64, rows)
	pc2 := make([]float64, rows)
	for i := range pc1 {
		pc1[i], pc2[i] = math.NaN(), math.NaN()
	}
	for k, row := range r.Rows {
		pc1[row] = r.Scores[k][0]
		pc2[row] = r.Scores[k][1]
	}
	return dataset.NewFloatColumn("PC1", pc1), dataset.NewFloatColumn("PC2", pc2)
}

// flipSigns makes the largest-magnitude loading of every component positive
func flipSigns(v *mat.Dense) {
	p, k := v.Dims()
	for c := 0; c < k; c++ {
		best := 0
		for j := 1; j < p; j++ {
			if math.Abs(v.At(j, c)) > math.Abs(v.At(best, c)) {
				best = j
			}
		}
		if v.At(best, c) < 0 {
			for j := 0; j < p; j++ {
				v.Set(j, c, -v.At(j, c))
			}
		}
	}
}

// completeCases returns the numeric columns and the rows where all of them are present
func completeCases(f *dataset.Frame) ([]*dataset.Column, []int) {
	cols := f.NumericColumns()
	var rows []int
	for i := 0; i < f.Len(); i++ {
		complete := true
		for _, c := range cols {
			if c.IsNull(i) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}
	return cols, rows
}

func names(cols []*dataset.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// FormatArray prints non-negative values like a numeric array printout:
// values share the widest integer and fraction width, integers keep a
// trailing dot and short fractions are padded with spaces.
func FormatArray(vals []float64) string {
	ints := make([]string, len(vals))
	fracs := make([]string, len(vals))
	intWidth, fracWidth := 0, 0
	for i, v := range vals {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		ip, fp, _ := strings.Cut(s, ".")
		ints[i], fracs[i] = ip, fp
		intWidth = max(intWidth, len(ip))
		fracWidth = max(fracWidth, len(fp))
	}
	parts := make([]string, len(vals))
	for i := range vals {
		parts[i] = strings.Repeat(" ", intWidth-len(ints[i])) + ints[i] + "." +
			fracs[i] + strings.Repeat(" ", fracWidth-len(fracs[i]))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"dataexplorer/pkg/contracts/domain"
)

// Format is an image encoding supported by the renderer
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

var (
	// ErrUnsupportedFormat is returned for encodings other than png and svg
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrNothingToRender is returned for charts that only carry a notice
	ErrNothingToRender = errors.New("chart has nothing to render")
)

// ParseFormat validates an image format name
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPNG, FormatSVG:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Renderer draws charts at a fixed canvas size
type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewRenderer returns a renderer with a 8x5 inch canvas
func NewRenderer() *Renderer {
	return &Renderer{Width: 8 * vg.Inch, Height: 5 * vg.Inch}
}

// Chart renders a built chart
func (r *Renderer) Chart(w io.Writer, c *domain.Chart, format Format) error {
	if c.Notice != "" || (len(c.Series) == 0 && len(c.Boxes) == 0) {
		return ErrNothingToRender
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Legend.Top = true

	var err error
	switch c.Spec.Kind {
	case domain.ChartBar:
		err = addBars(p, c)
	case domain.ChartLine:
		err = addLines(p, c)
	case domain.ChartScatter:
		err = addScatter(p, c)
	case domain.ChartBox:
		err = addBoxes(p, c)
	default:
		err = fmt.Errorf("unknown chart kind %q", c.Spec.Kind)
	}
	if err != nil {
		return err
	}
	return r.save(p, w, format)
}

// Correlation renders a correlation matrix as a heatmap
func (r *Renderer) Correlation(w io.Writer, m *domain.CorrelationMatrix, format Format) error {
	if m.Notice != "" || len(m.Columns) < 2 {
		return ErrNothingToRender
	}

	p := plot.New()
	p.Title.Text = "Correlation heatmap (sampled numeric columns)"

	heat := plotter.NewHeatMap(corrGrid{m: m}, palette.Heat(12, 1))
	heat.Min, heat.Max = -1, 1
	heat.NaN = color.Gray{Y: 200}
	p.Add(heat)

	n := len(m.Columns)
	xTicks := make([]plot.Tick, n)
	yTicks := make([]plot.Tick, n)
	for i, name := range m.Columns {
		xTicks[i] = plot.Tick{Value: float64(i), Label: name}
		yTicks[i] = plot.Tick{Value: float64(n - 1 - i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	return r.save(p, w, format)
}

// PCA renders the PC1/PC2 projection
func (r *Renderer) PCA(w io.Writer, res *domain.PCAResult, format Format) error {
	if res.Notice != "" || len(res.Points) == 0 {
		return ErrNothingToRender
	}

	p := plot.New()
	p.Title.Text = "PCA: PC1 vs PC2 (sampled data)"
	p.X.Label.Text = res.AxisLabel(0)
	p.Y.Label.Text = res.AxisLabel(1)

	pts := make(plotter.XYs, len(res.Points))
	for i, pt := range res.Points {
		pts[i] = plotter.XY{X: pt.PC1, Y: pt.PC2}
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.Color = plotutil.Color(0)
	p.Add(s)
	return r.save(p, w, format)
}

func (r *Renderer) save(p *plot.Plot, w io.Writer, format Format) error {
	wt, err := p.WriterTo(r.Width, r.Height, string(format))
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func addBars(p *plot.Plot, c *domain.Chart) error {
	index := categoryIndex(c.Categories)
	width := vg.Points(math.Max(4, math.Min(20, 60/float64(len(c.Series)))))
	for i, s := range c.Series {
		values := make(plotter.Values, len(c.Categories))
		for _, pt := range s.Points {
			if pt.Y != nil {
				values[index[pt.X]] = *pt.Y
			}
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Offset = vg.Length(float64(i)-float64(len(c.Series)-1)/2) * width
		p.Add(bars)
		if s.Name != "" {
			p.Legend.Add(s.Name, bars)
		}
	}
	p.NominalX(c.Categories...)
	return nil
}

func addLines(p *plot.Plot, c *domain.Chart) error {
	index := categoryIndex(c.Categories)
	numeric := numericX(c)
	for i, s := range c.Series {
		pts := xyPoints(s, index, numeric)
		if len(pts) == 0 {
			continue
		}
		line, marks, err := plotter.NewLinePoints(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		marks.Color = plotutil.Color(i)
		marks.Shape = plotutil.Shape(i)
		p.Add(line, marks)
		if s.Name != "" {
			p.Legend.Add(s.Name, line, marks)
		}
	}
	if !numeric {
		p.NominalX(c.Categories...)
	}
	return nil
}

func addScatter(p *plot.Plot, c *domain.Chart) error {
	index := categoryIndex(c.Categories)
	numeric := numericX(c)
	for i, s := range c.Series {
		pts := xyPoints(s, index, numeric)
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.Color = plotutil.Color(i)
		p.Add(sc)
		if s.Name != "" {
			p.Legend.Add(s.Name, sc)
		}
	}
	if !numeric {
		p.NominalX(c.Categories...)
	}
	return nil
}

func addBoxes(p *plot.Plot, c *domain.Chart) error {
	index := categoryIndex(c.Categories)
	var seriesNames []string
	seriesIndex := make(map[string]int)
	for _, b := range c.Boxes {
		if _, ok := seriesIndex[b.Series]; !ok {
			seriesIndex[b.Series] = len(seriesNames)
			seriesNames = append(seriesNames, b.Series)
		}
	}

	width := vg.Points(math.Max(6, math.Min(30, 80/float64(len(seriesNames)))))
	legend := make(map[string]bool)
	for _, b := range c.Boxes {
		s := seriesIndex[b.Series]
		loc := float64(index[b.Category])
		if len(c.Categories) == 0 {
			loc = float64(s)
		}
		box, err := plotter.NewBoxPlot(width, loc, plotter.Values(b.Values))
		if err != nil {
			return err
		}
		box.FillColor = plotutil.Color(s)
		if len(c.Categories) > 0 {
			box.Offset = vg.Length(float64(s)-float64(len(seriesNames)-1)/2) * width
		}
		p.Add(box)
		if b.Series != "" && !legend[b.Series] {
			legend[b.Series] = true
			p.Legend.Add(b.Series, boxThumbnail{fill: box.FillColor, line: box.BoxStyle})
		}
	}
	switch {
	case len(c.Categories) > 0:
		p.NominalX(c.Categories...)
	case len(seriesNames) > 1:
		p.NominalX(seriesNames...)
	default:
		p.HideX()
	}
	return nil
}

// boxThumbnail draws a box series' legend entry; BoxPlot has no thumbnail
// of its own
type boxThumbnail struct {
	fill color.Color
	line draw.LineStyle
}

func (t boxThumbnail) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	if t.fill != nil {
		c.FillPolygon(t.fill, c.ClipPolygonY(pts))
	}
	c.StrokeLines(t.line, c.ClipLinesY(append(pts, pts[0]))...)
}

// xyPoints places points at their numeric x, or at the category position
// when the axis is nominal. Points without a y or a position are skipped.
func xyPoints(s domain.ChartSeries, index map[string]int, numeric bool) plotter.XYs {
	pts := make(plotter.XYs, 0, len(s.Points))
	for _, pt := range s.Points {
		if pt.Y == nil {
			continue
		}
		if numeric {
			if pt.XValue != nil {
				pts = append(pts, plotter.XY{X: *pt.XValue, Y: *pt.Y})
			}
			continue
		}
		if i, ok := index[pt.X]; ok {
			pts = append(pts, plotter.XY{X: float64(i), Y: *pt.Y})
		}
	}
	return pts
}

func numericX(c *domain.Chart) bool {
	for _, s := range c.Series {
		for _, pt := range s.Points {
			if pt.XValue != nil {
				return true
			}
		}
	}
	return false
}

func categoryIndex(cats []string) map[string]int {
	index := make(map[string]int, len(cats))
	for i, c := range cats {
		index[c] = i
	}
	return index
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ with the first
// column drawn at the top.
type corrGrid struct {
	m *domain.CorrelationMatrix
}

func (g corrGrid) Dims() (c, r int) {
	n := len(g.m.Columns)
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	v := g.m.Values[len(g.m.Columns)-1-r][c]
	if v == nil {
		return math.NaN()
	}
	return *v
}

func (g corrGrid) X(c int) float64 { return float64(c) }

func (g corrGrid) Y(r int) float64 { return float64(r) }

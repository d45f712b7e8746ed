// Package plot renders the defining function of a single-variable equation
// as a PNG with its real roots marked on the x axis.
package plot

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"
	"sync"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/njchilds90/eqsolve"
)

// ErrRender is returned when the figure cannot be produced.
var ErrRender = errors.New("render error")

var (
	curveColor  = color.RGBA{R: 255, A: 255}
	accentColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	gridColor   = color.RGBA{R: 176, G: 176, B: 176, A: 255}
)

// Options controls sampling density and the raster size of the figure.
type Options struct {
	Samples int
	// Width and Height are in inches.
	Width  float64
	Height float64
	DPI    int
}

// DefaultOptions returns 800 samples on an 8x4.5 inch figure at 150 dpi.
func DefaultOptions() Options {
	return Options{Samples: 800, Width: 8, Height: 4.5, DPI: 150}
}

// Request describes one figure.
type Request struct {
	// Variable is the single free symbol of the equation.
	Variable string
	// Function is lhs - rhs.
	Function eqsolve.Expr
	// Solutions are the solved values of Variable.
	Solutions []eqsolve.Expr
	// LHSText is the left-hand side as typed, used in the title.
	LHSText string
}

// Result describes a rendered figure.
type Result struct {
	Variable string `json:"variable"`
	Domain   Domain `json:"domain"`
	// Roots are the real roots that were marked on the figure.
	Roots []float64 `json:"marked_roots"`
}

var (
	initOnce sync.Once
	initErr  error
)

// Init loads fonts and exercises the raster backend once. Render calls it,
// servers call it at startup so the first request does not pay for it.
func Init() error {
	initOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				initErr = fmt.Errorf("%w: backend init: %v", ErrRender, r)
			}
		}()
		p := gonumplot.New()
		p.Title.Text = "init"
		c := vgimg.NewWith(vgimg.UseWH(vg.Inch, vg.Inch), vgimg.UseDPI(10))
		p.Draw(draw.New(c))
	})
	return initErr
}

// Render plots req.Function over a domain chosen from its real roots and
// writes the PNG to w.
func Render(ctx context.Context, w io.Writer, req Request, opts Options) (res *Result, err error) {
	if err := Init(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrRender, r)
		}
	}()

	f, err := eqsolve.Compile(req.Function, req.Variable)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	domain := ChooseDomain(RealRoots(req.Solutions))
	xs, ys := Sample(f, domain, opts.Samples)

	var marked []float64
	for _, r := range RealRoots(req.Solutions) {
		if _, err := f(r); err == nil {
			marked = append(marked, r)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	p, err := newFigure(req, domain, xs, ys, marked)
	if err != nil {
		return nil, err
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return nil, fmt.Errorf("%w: encode png: %w", ErrRender, err)
	}
	return &Result{Variable: req.Variable, Domain: domain, Roots: marked}, nil
}

func newFigure(req Request, domain Domain, xs, ys, marked []float64) (*gonumplot.Plot, error) {
	p := gonumplot.New()
	p.Title.Text = fmt.Sprintf("Plot of f(%s) = %s", req.Variable, strings.TrimSpace(req.LHSText))
	p.X.Label.Text = req.Variable
	p.Y.Label.Text = fmt.Sprintf("f(%s)", req.Variable)

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Vertical.Dashes = []vg.Length{vg.Points(1), vg.Points(2)}
	grid.Horizontal.Color = gridColor
	grid.Horizontal.Dashes = []vg.Length{vg.Points(1), vg.Points(2)}
	p.Add(grid)

	for _, seg := range segments(xs, ys) {
		line, err := plotter.NewLine(seg)
		if err != nil {
			return nil, fmt.Errorf("%w: curve: %w", ErrRender, err)
		}
		line.Color = curveColor
		line.Width = vg.Points(1.5)
		p.Add(line)
	}

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = accentColor
	zero.Width = vg.Points(1)
	p.Add(zero)

	if len(marked) > 0 {
		pts := make(plotter.XYs, len(marked))
		for i, r := range marked {
			pts[i] = plotter.XY{X: r, Y: 0}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("%w: roots: %w", ErrRender, err)
		}
		sc.GlyphStyle.Color = accentColor
		sc.GlyphStyle.Radius = vg.Points(3)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
	}

	p.X.Min, p.X.Max = domain.Min, domain.Max
	ymin, ymax := yRange(ys)
	p.Y.Min, p.Y.Max = ymin, ymax
	return p, nil
}

// segments splits the samples into runs of finite points.
func segments(xs, ys []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	flush := func() {
		if len(cur) >= 2 {
			out = append(out, cur)
		}
		cur = nil
	}
	for i := range xs {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			flush()
			continue
		}
		cur = append(cur, plotter.XY{X: xs[i], Y: ys[i]})
	}
	flush()
	return out
}

// yRange spans the finite samples and always includes zero.
func yRange(ys []float64) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, y := range ys {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	pad := 0.05 * (hi - lo)
	return lo - pad, hi + pad
}

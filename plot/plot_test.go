package plot

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/njchilds90/eqsolve"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func request(t *testing.T, raw string) Request {
	t.Helper()
	res, err := eqsolve.SolveEquation(context.Background(), raw)
	if err != nil {
		t.Fatalf("SolveEquation(%q): %v", raw, err)
	}
	values := make([]eqsolve.Expr, len(res.Values))
	for i, v := range res.Values {
		values[i] = v.Value
	}
	return Request{
		Variable:  res.FreeSymbols[0],
		Function:  res.Residual(),
		Solutions: values,
		LHSText:   res.LHSText,
	}
}

func smallOptions() Options {
	return Options{Samples: 200, Width: 4, Height: 3, DPI: 50}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	res, err := Render(context.Background(), &buf, request(t, "x^2 - 4 = 0"), smallOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngSignature) {
		t.Fatal("output is not a PNG")
	}
	if res.Variable != "x" {
		t.Errorf("want x, got %s", res.Variable)
	}
	if res.Domain != (Domain{Min: -11, Max: 11}) {
		t.Errorf("want [-11, 11], got %+v", res.Domain)
	}
	if len(res.Roots) != 2 || res.Roots[0] != -2 || res.Roots[1] != 2 {
		t.Errorf("want roots -2 and 2, got %v", res.Roots)
	}
}

func TestRender_NoRealRoots(t *testing.T) {
	var buf bytes.Buffer
	res, err := Render(context.Background(), &buf, request(t, "x^2 + 1 = 0"), smallOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Domain != DefaultDomain {
		t.Errorf("want default domain, got %+v", res.Domain)
	}
	if len(res.Roots) != 0 {
		t.Errorf("want no marked roots, got %v", res.Roots)
	}
}

func TestRender_Discontinuous(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Render(context.Background(), &buf, request(t, "1/x = 2"), smallOptions()); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngSignature) {
		t.Fatal("output is not a PNG")
	}
}

func TestRender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	req := request(t, "x = 1")
	cancel()
	var buf bytes.Buffer
	if _, err := Render(ctx, &buf, req, smallOptions()); !errors.Is(err, ErrRender) {
		t.Errorf("want ErrRender, got %v", err)
	}
}

func TestRender_ExtraSymbol(t *testing.T) {
	req := Request{
		Variable: "x",
		Function: eqsolve.AddOf(eqsolve.S("x"), eqsolve.S("y")),
	}
	var buf bytes.Buffer
	if _, err := Render(context.Background(), &buf, req, smallOptions()); !errors.Is(err, ErrRender) {
		t.Errorf("want ErrRender, got %v", err)
	}
}

func TestSegments(t *testing.T) {
	nan := math.NaN()
	xs := []float64{0, 1, 2, 3, 4, 5, 6}
	ys := []float64{1, 2, nan, 3, nan, 4, 5}
	segs := segments(xs, ys)
	if len(segs) != 2 {
		t.Fatalf("want 2 segments, got %d", len(segs))
	}
	if segs[0][0].X != 0 || segs[1][0].X != 5 {
		t.Errorf("unexpected segments: %v", segs)
	}
}

func TestYRange(t *testing.T) {
	lo, hi := yRange([]float64{2, 4, math.NaN(), math.Inf(1)})
	if lo != -0.2 || hi != 4.2 {
		t.Errorf("want [-0.2, 4.2], got [%v, %v]", lo, hi)
	}
	lo, hi = yRange([]float64{0, 0})
	if lo != -1 || hi != 1 {
		t.Errorf("flat data should get a unit band, got [%v, %v]", lo, hi)
	}
}

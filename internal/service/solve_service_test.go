package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/njchilds90/eqsolve"
	"github.com/njchilds90/eqsolve/internal/artifact"
	"github.com/njchilds90/eqsolve/plot"
)

func newTestService(t *testing.T) (*SolveService, *artifact.LocalStore) {
	t.Helper()
	store, err := artifact.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	opts := plot.DefaultOptions()
	opts.Samples = 200
	opts.DPI = 40
	return NewSolveService(store, zap.NewNop(), SolveOptions{
		Timeout:   10 * time.Second,
		URLPrefix: "/static/plots",
		Plot:      opts,
	}), store
}

func TestSolveService_SingleVariable(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	t.Run("real roots are plotted and marked", func(t *testing.T) {
		resp, err := svc.Solve(ctx, "x^2 - 4 = 0")
		require.NoError(t, err)

		assert.Equal(t, []string{"-2", "2"}, resp.Result)
		assert.Equal(t, 2, resp.Count)
		assert.True(t, resp.AllReal)
		assert.False(t, resp.AllComplex)
		assert.Equal(t, []string{"x"}, resp.Symbols)
		assert.Empty(t, resp.PlotMessage)

		require.NotNil(t, resp.FigureURL)
		assert.True(t, strings.HasPrefix(*resp.FigureURL, "/static/plots/plot_"))
		name := strings.TrimPrefix(*resp.FigureURL, "/static/plots/")
		assert.True(t, artifact.ValidName(name))

		rc, err := store.Open(ctx, name)
		require.NoError(t, err)
		head := make([]byte, 8)
		_, err = io.ReadFull(rc, head)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, "\x89PNG\r\n\x1a\n", string(head))

		require.NotNil(t, resp.Plot)
		assert.Equal(t, "x", resp.Plot.Variable)
		assert.InDelta(t, -11, resp.Plot.Domain.Min, 1e-12)
		assert.InDelta(t, 11, resp.Plot.Domain.Max, 1e-12)
		require.Len(t, resp.Plot.MarkedRoots, 2)
		assert.InDelta(t, -2, resp.Plot.MarkedRoots[0], 1e-6)
		assert.InDelta(t, 2, resp.Plot.MarkedRoots[1], 1e-6)
	})

	t.Run("complex roots leave nothing to mark", func(t *testing.T) {
		resp, err := svc.Solve(ctx, "x^2 + 1 = 0")
		require.NoError(t, err)

		assert.Equal(t, []string{"- i", "i"}, resp.Result)
		assert.False(t, resp.AllReal)
		assert.True(t, resp.AllComplex)
		require.NotNil(t, resp.FigureURL)
		require.NotNil(t, resp.Plot)
		assert.Equal(t, -10.0, resp.Plot.Domain.Min)
		assert.Equal(t, 10.0, resp.Plot.Domain.Max)
		assert.Empty(t, resp.Plot.MarkedRoots)
		assert.NotNil(t, resp.Plot.MarkedRoots)
	})

	t.Run("each plot gets its own artifact", func(t *testing.T) {
		a, err := svc.Solve(ctx, "2x + 1 = 0")
		require.NoError(t, err)
		b, err := svc.Solve(ctx, "2x + 1 = 0")
		require.NoError(t, err)

		assert.Equal(t, a.Result, b.Result)
		require.NotNil(t, a.FigureURL)
		require.NotNil(t, b.FigureURL)
		assert.NotEqual(t, *a.FigureURL, *b.FigureURL)
	})
}

func TestSolveService_NoPlot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("two symbols", func(t *testing.T) {
		resp, err := svc.Solve(ctx, "x + y = 5")
		require.NoError(t, err)

		assert.Equal(t, []string{`\left\{ x : 5 - y\right\}`}, resp.Result)
		assert.Nil(t, resp.FigureURL)
		assert.Nil(t, resp.Plot)
		assert.Equal(t, "Plot only produced for single-variable equations (found symbols: x,y).", resp.PlotMessage)
	})

	t.Run("no symbols", func(t *testing.T) {
		resp, err := svc.Solve(ctx, "1 = 1")
		require.NoError(t, err)

		assert.Empty(t, resp.Result)
		assert.NotNil(t, resp.Result)
		assert.Zero(t, resp.Count)
		assert.True(t, resp.AllReal)
		assert.True(t, resp.AllComplex)
		assert.Equal(t, []string{}, resp.Symbols)
		assert.Nil(t, resp.FigureURL)
		assert.Equal(t, "Plot only produced for single-variable equations (found symbols: ).", resp.PlotMessage)
	})

	t.Run("identity", func(t *testing.T) {
		for _, eq := range []string{"x = x", "x/x = 1", "2(x + 1) = 2x + 2"} {
			resp, err := svc.Solve(ctx, eq)
			require.NoError(t, err, eq)

			assert.Empty(t, resp.Result, eq)
			assert.Equal(t, []string{}, resp.Symbols, eq)
			assert.Nil(t, resp.FigureURL, eq)
			assert.Nil(t, resp.Plot, eq)
			assert.Equal(t, plot.SkipMessage(nil), resp.PlotMessage, eq)
		}
	})
}

func TestSolveService_Errors(t *testing.T) {
	svc, _ := newTestService(t)

	t.Run("parse error", func(t *testing.T) {
		_, err := svc.Solve(context.Background(), "x^^2=0")
		require.Error(t, err)
		assert.ErrorIs(t, err, eqsolve.ErrParse)
		assert.NotEmpty(t, err.Error())
	})

	t.Run("not an equation", func(t *testing.T) {
		_, err := svc.Solve(context.Background(), "x + 1")
		assert.ErrorIs(t, err, eqsolve.ErrNotAnEquation)
	})

	t.Run("expired deadline", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		_, err := svc.Solve(ctx, "x^2 - 4 = 0")
		require.Error(t, err)
		assert.ErrorIs(t, err, eqsolve.ErrTimeout)
	})
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/njchilds90/eqsolve"
	"github.com/njchilds90/eqsolve/internal/artifact"
	"github.com/njchilds90/eqsolve/internal/dto"
	"github.com/njchilds90/eqsolve/internal/middleware"
	"github.com/njchilds90/eqsolve/plot"
)

// Solver answers a solve request
type Solver interface {
	Solve(ctx context.Context, equation string) (*dto.SolveResponse, error)
}

// SolveOptions configures SolveService
type SolveOptions struct {
	// Timeout bounds the symbolic solve, not the plot
	Timeout time.Duration
	// URLPrefix is prepended to artifact names to form figure URLs
	URLPrefix string
	Plot      plot.Options
}

// SolveService solves equations and plots single-variable ones
type SolveService struct {
	store  artifact.Store
	logger *zap.Logger
	opts   SolveOptions
}

// NewSolveService creates a new solve service
func NewSolveService(store artifact.Store, logger *zap.Logger, opts SolveOptions) *SolveService {
	return &SolveService{
		store:  store,
		logger: logger,
		opts:   opts,
	}
}

// Solve solves equation and, when it has exactly one free symbol, stores a
// plot of lhs - rhs. A failed plot fails the whole request.
func (s *SolveService) Solve(ctx context.Context, equation string) (*dto.SolveResponse, error) {
	res, err := s.solve(ctx, equation)
	if err != nil {
		return nil, err
	}

	resp := &dto.SolveResponse{
		Result:     res.Solutions,
		Equation:   res.Equation,
		Count:      res.Count,
		AllReal:    res.AllReal,
		AllComplex: res.AllComplex,
		Symbols:    res.FreeSymbols,
	}
	if resp.Symbols == nil {
		resp.Symbols = []string{}
	}

	if len(res.FreeSymbols) != 1 {
		resp.PlotMessage = plot.SkipMessage(res.FreeSymbols)
		return resp, nil
	}

	info, url, err := s.renderPlot(ctx, res)
	if err != nil {
		s.logger.Warn("plot failed",
			zap.String("equation", equation),
			zap.Error(err),
		)
		return nil, err
	}
	resp.Plot = info
	resp.FigureURL = &url
	return resp, nil
}

func (s *SolveService) solve(ctx context.Context, equation string) (*eqsolve.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	res, err := eqsolve.SolveEquation(ctx, equation)
	elapsed := time.Since(start)
	middleware.RecordSolve(eqsolve.ErrorKind(err), elapsed)

	if err != nil {
		level := zap.DebugLevel
		if errors.Is(err, eqsolve.ErrTimeout) {
			level = zap.WarnLevel
		}
		s.logger.Log(level, "solve failed",
			zap.String("equation", equation),
			zap.String("kind", eqsolve.ErrorKind(err)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Debug("equation solved",
		zap.String("equation", equation),
		zap.Int("count", res.Count),
		zap.Strings("symbols", res.FreeSymbols),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (s *SolveService) renderPlot(ctx context.Context, res *eqsolve.Result) (*dto.PlotInfo, string, error) {
	values := make([]eqsolve.Expr, len(res.Values))
	for i, v := range res.Values {
		values[i] = v.Value
	}

	start := time.Now()
	var buf bytes.Buffer
	pr, err := plot.Render(ctx, &buf, plot.Request{
		Variable:  res.FreeSymbols[0],
		Function:  res.Residual(),
		Solutions: values,
		LHSText:   res.LHSText,
	}, s.opts.Plot)
	if err != nil {
		return nil, "", err
	}
	middleware.RecordPlotRendered(time.Since(start))

	name := artifact.NewName()
	if err := s.store.Put(ctx, name, &buf, int64(buf.Len())); err != nil {
		return nil, "", fmt.Errorf("failed to store plot: %w", err)
	}

	roots := pr.Roots
	if roots == nil {
		roots = []float64{}
	}
	return &dto.PlotInfo{
		Variable:    pr.Variable,
		Domain:      dto.Range{Min: pr.Domain.Min, Max: pr.Domain.Max},
		MarkedRoots: roots,
	}, s.opts.URLPrefix + "/" + name, nil
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/njchilds90/eqsolve"
	"github.com/njchilds90/eqsolve/internal/artifact"
	"github.com/njchilds90/eqsolve/internal/dto"
	"github.com/njchilds90/eqsolve/internal/middleware"
	"github.com/njchilds90/eqsolve/internal/service"
	"github.com/njchilds90/eqsolve/plot"
)

type stubSolver struct {
	calls int
	resp  *dto.SolveResponse
	err   error
}

func (s *stubSolver) Solve(ctx context.Context, equation string) (*dto.SolveResponse, error) {
	s.calls++
	return s.resp, s.err
}

func newTestApp(solver service.Solver, store artifact.Store) *fiber.App {
	logger := zap.NewNop()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	app.Use(middleware.RequestID())
	app.Use(middleware.CORS())

	health := NewHealthHandler()
	app.Get("/", health.Root)
	app.Get("/health", health.Health)
	app.Get("/solve", NewSolveHandler(solver, logger, 64).Solve)
	app.Get("/static/plots/:name", NewArtifactHandler(store, logger).Get)
	return app
}

func solveURL(equation string) string {
	return "/solve?equation=" + url.QueryEscape(equation)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRoot(t *testing.T) {
	app := newTestApp(&stubSolver{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "Equation API. Try /solve?equation=1+1", body["message"])
}

func TestHealth(t *testing.T) {
	app := newTestApp(&stubSolver{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.HealthResponse
	decode(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.WithinDuration(t, time.Now(), body.Time, time.Minute)
}

func TestSolveHandler_Validation(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		message string
	}{
		{"missing", "/solve", MissingEquationMessage},
		{"empty", "/solve?equation=", MissingEquationMessage},
		{"blank", solveURL("   "), MissingEquationMessage},
		{"too long", solveURL("x=" + strings.Repeat("1", 70)), "equation: must be at most 64 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			solver := &stubSolver{}
			app := newTestApp(solver, nil)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body dto.ErrorResponse
			decode(t, resp, &body)
			assert.Equal(t, tt.message, body.Error)
			assert.Zero(t, solver.calls)
		})
	}
}

func TestSolveHandler_SolverError(t *testing.T) {
	solver := &stubSolver{err: fmt.Errorf("left-hand side: %w: unexpected '^' at position 3", eqsolve.ErrParse)}
	app := newTestApp(solver, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, solveURL("x^^2=0"), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var body dto.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, solver.err.Error(), body.Error)
}

func TestSolveHandler_EndToEnd(t *testing.T) {
	store, err := artifact.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	opts := plot.DefaultOptions()
	opts.Samples = 200
	opts.DPI = 40
	svc := service.NewSolveService(store, zap.NewNop(), service.SolveOptions{
		Timeout:   10 * time.Second,
		URLPrefix: "/static/plots",
		Plot:      opts,
	})
	app := newTestApp(svc, store)

	t.Run("solution and figure", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, solveURL("x^2 - 4 = 0"), nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body dto.SolveResponse
		decode(t, resp, &body)
		assert.Equal(t, []string{"-2", "2"}, body.Result)
		assert.True(t, body.AllReal)
		require.NotNil(t, body.FigureURL)

		img, err := app.Test(httptest.NewRequest(http.MethodGet, *body.FigureURL, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, img.StatusCode)
		assert.Equal(t, "image/png", img.Header.Get("Content-Type"))
		data, err := io.ReadAll(img.Body)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	})

	t.Run("figure_url is null without a plot", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, solveURL("x + y = 5"), nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var raw map[string]json.RawMessage
		decode(t, resp, &raw)
		assert.Equal(t, "null", string(raw["figure_url"]))
		assert.JSONEq(t, `["\\left\\{ x : 5 - y\\right\\}"]`, string(raw["result"]))
		assert.JSONEq(t, `"Plot only produced for single-variable equations (found symbols: x,y)."`, string(raw["plot_message"]))
	})

	t.Run("not an equation", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, solveURL("x + 1"), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body dto.ErrorResponse
		decode(t, resp, &body)
		assert.Equal(t, "Not an equation", body.Error)
	})
}

func TestArtifactHandler(t *testing.T) {
	store, err := artifact.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	app := newTestApp(&stubSolver{}, store)

	name := artifact.NewName()
	png := []byte("\x89PNG\r\n\x1a\nbody")
	require.NoError(t, store.Put(context.Background(), name, bytes.NewReader(png), int64(len(png))))

	t.Run("found", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/static/plots/"+name, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, png, data)
	})

	for _, missing := range []string{artifact.NewName(), "secret.txt"} {
		t.Run("missing "+missing, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/static/plots/"+missing, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)

			var body dto.ErrorResponse
			decode(t, resp, &body)
			assert.Equal(t, "plot not found", body.Error)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := newTestApp(&stubSolver{}, nil)
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fmt.Errorf("database exploded")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body dto.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "Internal Server Error", body.Error)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

package dto

// SolveQuery holds the query parameters of GET /solve
type SolveQuery struct {
	Equation string `query:"equation"`
}

// SolveResponse is the body of a successful solve
type SolveResponse struct {
	// Result holds the LaTeX of each solution
	Result []string `json:"result"`
	// FigureURL is null unless a plot was produced
	FigureURL   *string   `json:"figure_url"`
	Equation    string    `json:"equation"`
	Count       int       `json:"count"`
	AllReal     bool      `json:"all_real"`
	AllComplex  bool      `json:"all_complex"`
	Symbols     []string  `json:"symbols"`
	Plot        *PlotInfo `json:"plot,omitempty"`
	PlotMessage string    `json:"plot_message,omitempty"`
}

// PlotInfo describes the figure behind FigureURL
type PlotInfo struct {
	Variable    string    `json:"variable"`
	Domain      Range     `json:"domain"`
	MarkedRoots []float64 `json:"marked_roots"`
}

// Range is a closed interval on the x axis
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

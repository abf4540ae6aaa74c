package dev

import (
	"github.com/vango-dev/fsroute/pkg/router"
)

// MatchReport is the JSON view of a match, served by the dev inspector and
// printed by "fsroute match".
type MatchReport struct {
	Path             string            `json:"path"`
	Route            string            `json:"route"`
	File             string            `json:"file"`
	Mode             router.Mode       `json:"mode"`
	Loader           string            `json:"loader"`
	API              bool              `json:"api,omitempty"`
	Params           map[string]string `json:"params,omitempty"`
	Layouts          []string          `json:"layouts,omitempty"`
	Middleware       []string          `json:"middleware,omitempty"`
	NotFoundFallback bool              `json:"notFoundFallback,omitempty"`
	Generation       uint64            `json:"generation"`
}

// NewMatchReport describes m, matched for path.
func NewMatchReport(path string, m *router.RouteMatch) MatchReport {
	r := MatchReport{
		Path:             path,
		Route:            m.Leaf.Pattern,
		File:             m.Leaf.ModulePath,
		Mode:             m.Mode,
		Loader:           m.Mode.Contract().String(),
		API:              m.Leaf.IsAPI,
		Params:           m.Params,
		NotFoundFallback: m.IsNotFoundFallback,
		Generation:       m.Generation,
	}
	for _, l := range m.Layouts {
		r.Layouts = append(r.Layouts, l.ModulePath)
	}
	for _, mw := range m.Middleware {
		r.Middleware = append(r.Middleware, mw.ModulePath)
	}
	return r
}

package routes

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/keep/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keep/internal/logger"
)

// Registrar mounts one route group.
type Registrar func(r chi.Router, d deps.Deps)

type group struct {
	name string
	reg  Registrar
}

var groups []group

// Register adds a route group from an init function. Names are unique.
func Register(name string, reg Registrar) {
	if slices.ContainsFunc(groups, func(g group) bool { return g.name == name }) {
		panic(fmt.Sprintf("routes: group %q registered twice", name))
	}
	groups = append(groups, group{name: name, reg: reg})
}

// RegisterAll mounts every group by name order, independent of file init
// order. Called once from server.New().
func RegisterAll(r chi.Router, d deps.Deps) {
	sorted := slices.SortedFunc(slices.Values(groups), func(a, b group) int {
		return cmp.Compare(a.name, b.name)
	})
	for _, g := range sorted {
		g.reg(r, d)
		d.Logger.Debug("routes mounted", logger.String("group", g.name))
	}
}

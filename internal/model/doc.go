// Package model assembles battery models from swappable submodels.
//
// A model starts as a mapping from domain names to [cell.Submodel]
// implementations. Constructors such as [NewSPM] fill the mapping from
// their options; with [WithDeferredBuild] the mapping stays open so
// individual entries can be replaced before [Model.Build] resolves the
// inter-submodel variable dependencies and assembles the equation set.
//
//	m, _ := model.NewSPM(model.WithDeferredBuild())
//	m.Submodels["thermal"] = submodels.NewLumpedThermal()
//	if err := m.Build(); err != nil { ... }
package model

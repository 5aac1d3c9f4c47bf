// Package submodels implements the interchangeable components a battery
// model is assembled from: particle diffusion, interfacial kinetics,
// electrolyte transport, thermal behavior, SEI growth, current collection,
// and terminal voltage. Each implementation satisfies [cell.Submodel] and
// can be swapped in a model's submodel map before the build step.
package submodels

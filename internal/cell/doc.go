// Package cell provides the core primitives shared by every battery model:
//
//   - [State]: the global state vector of a built model
//   - [Layout]: mapping from state variable names to vector slices
//   - [Registry]: named output variables and the functions computing them
//   - [Eval]: one-point evaluation context with memoized variable lookup
//   - [Submodel]: an interchangeable component of one physical domain
//
// A model is assembled from submodels keyed by domain name. Each submodel
// owns fundamental state variables, registers derived variables that other
// submodels may consume, and contributes time derivatives for its states.
// The build step in the model package resolves inter-submodel variable
// dependencies by retrying Register until a fixed point is reached.
package cell

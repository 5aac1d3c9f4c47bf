// Package solver integrates built battery models in time.
//
// Steppers: explicit [Euler] and [RK4], the adaptive Dormand-Prince pair
// [RK45], and the implicit [BackwardEuler] for stiff parameter regimes.
// [Solve] drives the loop: applied-current profile, state validation,
// context cancellation, and termination events with bisection refinement.
package solver

package alloc

import "errors"

var (
	// ErrUnknownStrategy is returned when a shape name is not one of
	// uniform, pareto or zipf.
	ErrUnknownStrategy = errors.New("unknown distribution strategy")

	// ErrInfeasibleFloor is returned under FloorStrict when k*minCount > n.
	ErrInfeasibleFloor = errors.New("minimum per-bucket floor cannot be honored")
)

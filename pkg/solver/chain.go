package solver

import "errors"

// ErrAllStrategiesFailed indicates every strategy in a chain failed.
var ErrAllStrategiesFailed = errors.New("solver: all strategies failed")

// Strategy is one named root-finding attempt in an ordered fallback chain.
type Strategy struct {
	Name string
	Run  func() (float64, error)
}

// Attempt records the outcome of a single strategy.
type Attempt struct {
	Strategy string
	Value    float64
	Err      error
}

// RunChain executes strategies in order and returns the first successful
// root together with the name of the strategy that produced it. The attempt
// log is returned in both cases so callers can report why earlier
// strategies were rejected.
func RunChain(strategies []Strategy) (float64, string, []Attempt, error) {
	attempts := make([]Attempt, 0, len(strategies))
	for _, s := range strategies {
		value, err := s.Run()
		attempts = append(attempts, Attempt{Strategy: s.Name, Value: value, Err: err})
		if err == nil {
			return value, s.Name, attempts, nil
		}
	}
	return 0, "", attempts, ErrAllStrategiesFailed
}

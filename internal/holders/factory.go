package holders

import (
	"errors"
	"log"
)

// Strategy names accepted by FromName.
const (
	StrategyLogScan  = "logscan"
	StrategyExplorer = "explorer"
)

// Factory errors
var (
	ErrUnknownStrategy = errors.New("unknown holder strategy")
	ErrMissingReader   = errors.New("logscan requires a chain reader")
	ErrMissingAPI      = errors.New("explorer requires an explorer client")
)

// Deps carries the collaborators a strategy may need.
type Deps struct {
	Reader ChainReader
	API    HolderAPI
	Window uint64
	Logger *log.Logger
}

// FromName creates an Estimator by strategy name.
// Validates required collaborators per strategy.
func FromName(name string, deps Deps) (Estimator, error) {
	switch name {
	case StrategyLogScan:
		if deps.Reader == nil {
			return nil, ErrMissingReader
		}
		return NewLogScanEstimator(deps.Reader, deps.Window, deps.Logger), nil
	case StrategyExplorer:
		if deps.API == nil {
			return nil, ErrMissingAPI
		}
		return NewExplorerEstimator(deps.API, deps.Logger), nil
	default:
		return nil, ErrUnknownStrategy
	}
}

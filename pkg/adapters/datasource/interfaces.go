// Package datasource defines the execution boundary between the validation
// pipeline and a concrete database backend.
package datasource

import (
	"context"

	"github.com/datachat-io/engine/pkg/models"
)

// BoundedExecutor runs a single validated statement under the engine's
// resource bounds. Failure is always carried inside the ExecutionOutcome;
// implementations never return a Go error or panic across this boundary.
type BoundedExecutor interface {
	// Execute runs the statement under the configured wall-clock timeout and
	// row cap, returning normalized rows and column metadata.
	Execute(ctx context.Context, sqlQuery string) models.ExecutionOutcome

	// Close releases any resources held by the executor.
	Close() error
}

package state

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// newLocalEnv creates a new LocalEnv instance with default values. Logger is
// replaced when configuration is loaded.
func newLocalEnv() *LocalEnv {
	id, err := uuid.NewV7()
	if err != nil {
		// time ordering is a nicety only
		id = uuid.New()
	}
	return &LocalEnv{
		Log:   zap.NewNop(),
		RunID: id,
		start: time.Now(),
	}
}

package instrumentedpersistence

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

var keyspaceOpens atomic.Uint64

// handleID returns an identifier for an open keyspace, made of a sequence
// number and a UUID.
func handleID() string {
	return fmt.Sprintf(
		"#%d %s",
		keyspaceOpens.Add(1),
		uuid.NewString(),
	)
}

package apierror

import (
	"fmt"
	"sync/atomic"
	"time"
)

const correlationPrefix = "AT"

// counter is shared by every error-producing path in the process so that
// correlation ids stay strictly ordered even when timestamps collide.
var counter atomic.Uint64

// NewCorrelationID returns an id of the form AT-<unix-millis>-<n>. The counter
// component is unique per process and increases with every call, so ids created
// in sequence sort in creation order.
func NewCorrelationID() string {
	n := counter.Add(1)
	return fmt.Sprintf("%s-%d-%d", correlationPrefix, time.Now().UnixMilli(), n)
}

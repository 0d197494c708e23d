package respond

import (
	"math/rand/v2"
	"sync"
)

// Chooser picks an index in [0, n). Implementations must be safe for concurrent use.
type Chooser interface {
	IntN(n int) int
}

// NewChooser returns a uniform chooser. A zero seed uses the runtime's
// randomly seeded source; any other seed gives a reproducible sequence.
func NewChooser(seed int64) Chooser {
	if seed == 0 {
		return globalChooser{}
	}
	s := uint64(seed)
	return &seededChooser{r: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

type globalChooser struct{}

func (globalChooser) IntN(n int) int {
	return rand.IntN(n)
}

// seededChooser serializes access to a *rand.Rand, which is not goroutine safe
type seededChooser struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (c *seededChooser) IntN(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.r.IntN(n)
}

// FirstChooser always picks index 0
type FirstChooser struct{}

// IntN returns 0
func (FirstChooser) IntN(int) int {
	return 0
}

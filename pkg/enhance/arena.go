package enhance

import "gocv.io/x/gocv"

// matArena scopes native matrix allocations to one pipeline call.
// Every intermediate Mat is registered here and released in a single
// cleanup, so early returns and failures cannot leak native memory.
type matArena struct {
	mats []*gocv.Mat
}

func newArena() *matArena {
	return &matArena{}
}

// track registers an existing Mat for release.
func (a *matArena) track(m gocv.Mat) *gocv.Mat {
	p := &m
	a.mats = append(a.mats, p)
	return p
}

// new allocates an empty Mat owned by the arena.
func (a *matArena) new() *gocv.Mat {
	m := gocv.NewMat()
	return a.track(m)
}

// release closes every registered Mat. Safe to call once via defer.
func (a *matArena) release() {
	for _, m := range a.mats {
		m.Close()
	}
	a.mats = nil
}

// size returns the number of registered matrices, for tests.
func (a *matArena) size() int {
	return len(a.mats)
}

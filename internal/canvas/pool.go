package canvas

import (
	"image"
	"sync"
)

// Pool recycles frame buffers to keep the garbage collector out of the
// render loop. Buffers are grouped by size.
type Pool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

func NewPool() *Pool {
	return &Pool{pools: make(map[image.Rectangle]*sync.Pool)}
}

// Get returns a frame of the requested size. Its contents are undefined.
func (p *Pool) Get(rect image.Rectangle) *RGB {
	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[rect]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					return NewRGB(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*RGB)
}

// Put hands a frame back. Frames of sizes never requested are dropped.
func (p *Pool) Put(img *RGB) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}

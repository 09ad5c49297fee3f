package texture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/logger"
)

// ErrBadURL is reported for texture references that cannot name a file.
var ErrBadURL = errors.New("texture: bad url")

// Uploader creates device textures. Only called from the render thread.
type Uploader interface {
	UploadTexture(img *image.RGBA) (gpu.TextureHandle, error)
	DeleteTexture(h gpu.TextureHandle)
}

type state int

const (
	stateLoading state = iota
	stateDecoded
	stateReady
	stateBad
)

type entry struct {
	url    string
	path   string
	state  state
	img    *image.RGBA
	handle gpu.TextureHandle
	err    error
}

// Cache maps texture URLs to device handles.
type Cache struct {
	mu      sync.Mutex
	dirs    []string
	entries map[string]*entry
	stale   []gpu.TextureHandle
	onReady func()
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewCache creates a cache resolving relative URLs against dirs in order.
// onReady, if not nil, is called whenever a texture finishes decoding or is
// invalidated, typically to queue a redraw.
func NewCache(dirs []string, onReady func()) *Cache {
	return &Cache{
		dirs:    dirs,
		entries: make(map[string]*entry),
		onReady: onReady,
		log:     logger.Named("texture"),
	}
}

// Handle returns the device handle for url. It returns gpu.LoadingTexture
// while the image is decoding or waiting for Flush, and gpu.BadTexture if
// the image could not be loaded.
func (c *Cache) Handle(url string) gpu.TextureHandle {
	if url == "" {
		return gpu.NoTexture
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[url]
	if !ok {
		e = &entry{url: url}
		c.entries[url] = e
		c.wg.Add(1)
		go c.load(e)
	}

	switch e.state {
	case stateReady:
		return e.handle
	case stateBad:
		return gpu.BadTexture
	default:
		return gpu.LoadingTexture
	}
}

// Err returns the load error for url, if any.
func (c *Cache) Err(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[url]; ok {
		return e.err
	}
	return nil
}

func (c *Cache) load(e *entry) {
	defer c.wg.Done()

	path, err := c.resolve(e.url)
	var img *image.RGBA
	if err == nil {
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			img, err = Decode(path, data)
		}
	}

	c.mu.Lock()
	if c.entries[e.url] != e {
		// Invalidated while decoding.
		c.mu.Unlock()
		return
	}
	e.path = path
	if err != nil {
		e.state = stateBad
		e.err = err
		c.log.Warn("texture load failed", zap.String("url", e.url), zap.Error(err))
	} else {
		e.state = stateDecoded
		e.img = img
	}
	c.mu.Unlock()

	c.notify()
}

func (c *Cache) resolve(url string) (string, error) {
	if filepath.IsAbs(url) {
		return url, nil
	}
	for _, dir := range c.dirs {
		p := filepath.Join(dir, url)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if _, err := os.Stat(url); err == nil {
		return url, nil
	}
	return "", fmt.Errorf("%w: %s not found", ErrBadURL, url)
}

// Flush uploads decoded images and frees invalidated textures. It must be
// called on the render thread. Returns the number of textures uploaded.
func (c *Cache) Flush(up Uploader) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, h := range c.stale {
		up.DeleteTexture(h)
	}
	c.stale = c.stale[:0]

	n := 0
	for _, e := range c.entries {
		if e.state != stateDecoded {
			continue
		}
		h, err := up.UploadTexture(e.img)
		e.img = nil
		if err != nil {
			e.state = stateBad
			e.err = err
			c.log.Warn("texture upload failed", zap.String("url", e.url), zap.Error(err))
			continue
		}
		e.state = stateReady
		e.handle = h
		n++
	}
	return n
}

// Invalidate drops every entry loaded from path so the next Handle call
// reloads it. Returns the number of entries dropped.
func (c *Cache) Invalidate(path string) int {
	c.mu.Lock()
	n := 0
	for url, e := range c.entries {
		if !samePath(e.path, path) {
			continue
		}
		if e.state == stateReady {
			c.stale = append(c.stale, e.handle)
		}
		delete(c.entries, url)
		n++
	}
	c.mu.Unlock()

	if n > 0 {
		c.log.Debug("texture invalidated", zap.String("path", path), zap.Int("entries", n))
		c.notify()
	}
	return n
}

// Free deletes every uploaded texture. Render thread only.
func (c *Cache) Free(up Uploader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.stale {
		up.DeleteTexture(h)
	}
	c.stale = nil
	for url, e := range c.entries {
		if e.state == stateReady {
			up.DeleteTexture(e.handle)
		}
		delete(c.entries, url)
	}
}

// Wait blocks until all in-flight decodes finish.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) notify() {
	if c.onReady != nil {
		c.onReady()
	}
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}

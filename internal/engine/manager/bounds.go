package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/Faultbox/simview/internal/engine/mesh"
	"github.com/Faultbox/simview/pkg/math"
)

// MeshBounds returns the model space bounds of a mesh. Without block it
// returns mesh.ErrNotReady while the mesh loads. With block it waits up to
// render.bounds_timeout and then fails with ErrBoundsTimeout.
func (m *Manager) MeshBounds(ctx context.Context, key mesh.Key, block bool) (math.AABB, error) {
	if !block {
		return m.meshes.Bounds(key)
	}

	timeout := m.cfg.BoundsTimeout.Std()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	b, err := m.meshes.WaitBounds(ctx, key)
	if errors.Is(err, context.DeadlineExceeded) {
		return math.AABB{}, fmt.Errorf("%w: %s after %s", ErrBoundsTimeout, key, timeout)
	}
	return b, err
}

package picking

import (
	"cmp"
	"slices"

	"github.com/Faultbox/simview/pkg/math"
)

// Target is something that can be hit by a pick ray.
type Target interface {
	PickingID() int64
	// CollisionDist returns the distance along ray to the target as seen
	// in viewID, or a negative value on a miss.
	CollisionDist(ray math.Ray, viewID int) float64
}

// Hit is a raw ray intersection.
type Hit struct {
	ID   int64
	Dist float64
}

// Result is a deduplicated pick, tagged as an entity or a handle.
type Result struct {
	ID       int64
	Size     float64
	IsEntity bool
}

// Handle returns the result id as a handle id.
func (r Result) Handle() HandleID {
	return HandleID(r.ID)
}

// Resolver maps a picking id to an entity size. ok is false when the id
// does not belong to an entity.
type Resolver func(id int64) (size float64, ok bool)

// PickScene intersects ray with every target and returns the hits ordered
// nearest first.
func PickScene[T Target](targets []T, ray math.Ray, viewID int) []Hit {
	var hits []Hit
	for _, t := range targets {
		d := t.CollisionDist(ray, viewID)
		if d < 0 {
			continue
		}
		hits = append(hits, Hit{ID: t.PickingID(), Dist: d})
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(a.Dist, b.Dist)
	})
	return hits
}

// Dedupe keeps the first hit for every id and tags it through resolve.
func Dedupe(hits []Hit, resolve Resolver) []Result {
	seen := make(map[int64]struct{}, len(hits))
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.ID]; ok {
			continue
		}
		seen[h.ID] = struct{}{}

		r := Result{ID: h.ID}
		if resolve != nil {
			if size, ok := resolve(h.ID); ok {
				r.Size = size
				r.IsEntity = true
			}
		}
		out = append(out, r)
	}
	return out
}

// SortForSelection orders entities before everything else, smaller
// entities first. The sort is stable.
func SortForSelection(results []Result) {
	slices.SortStableFunc(results, func(a, b Result) int {
		if a.IsEntity != b.IsEntity {
			if a.IsEntity {
				return -1
			}
			return 1
		}
		if !a.IsEntity {
			return 0
		}
		return cmp.Compare(a.Size, b.Size)
	})
}

// SortForHandles orders results by descending handle priority. The sort
// is stable.
func SortForHandles(results []Result) {
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Handle().Priority(), a.Handle().Priority())
	})
}

// FirstHandle returns the first result naming an interaction handle.
func FirstHandle(results []Result) (HandleID, bool) {
	for _, r := range results {
		if r.Handle().IsHandle() {
			return r.Handle(), true
		}
	}
	return NoHandle, false
}

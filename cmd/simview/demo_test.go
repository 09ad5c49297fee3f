package main

import (
	"testing"

	"github.com/Faultbox/simview/internal/engine/interaction"
	"github.com/Faultbox/simview/internal/engine/mesh"
	"github.com/Faultbox/simview/internal/sim/entity"
)

func TestPopulate(t *testing.T) {
	pop := entity.NewPopulation()
	reg := mesh.NewRegistry(mesh.BuiltinLoader(nil), nil)
	if err := populate(pop, reg); err != nil {
		t.Fatalf("populate() error = %v", err)
	}
	if got := pop.Len(); got != 6 {
		t.Errorf("Len() = %d, want 6", got)
	}

	movable := 0
	for _, d := range pop.Drawables() {
		e, ok := pop.Entity(d.PickingID())
		if !ok {
			t.Errorf("Entity(%d) ok = false", d.PickingID())
			continue
		}
		if e.Movable() {
			movable++
		}
	}
	if movable != 4 {
		t.Errorf("movable entities = %d, want 4", movable)
	}

	line, _ := pop.Entity(6)
	if _, ok := line.(interaction.HasScreenPoints); !ok {
		t.Error("entity 6 does not implement HasScreenPoints")
	}
}

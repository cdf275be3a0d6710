package screenshot

import (
	"fmt"
	"image"
	"testing"
)

func TestRegionTableComplete(t *testing.T) {
	regs := Regions()
	want := 2 + 2*playersPerSide*5
	if len(regs) != want {
		t.Fatalf("expected %d regions got %d", want, len(regs))
	}

	byName := map[string]image.Rectangle{}
	for _, r := range regs {
		if _, dup := byName[r.Name]; dup {
			t.Fatalf("duplicate region name %s", r.Name)
		}
		byName[r.Name] = r.Rect
	}

	for _, side := range []string{SideAlly, SideOpponent} {
		if _, ok := byName[side+"_score"]; !ok {
			t.Fatalf("missing %s_score", side)
		}
		for n := 1; n <= playersPerSide; n++ {
			for _, suffix := range []string{"", "_scored", "_kills", "_assists", "_total"} {
				name := fmt.Sprintf("%s_%d%s", side, n, suffix)
				if _, ok := byName[name]; !ok {
					t.Fatalf("missing region %s", name)
				}
			}
		}
	}
}

func TestRegionsWithinFrame(t *testing.T) {
	frame := image.Rect(0, 0, 1920, 1080)
	for _, r := range Regions() {
		if r.Rect.Empty() {
			t.Fatalf("region %s has an empty rectangle", r.Name)
		}
		if !r.Rect.In(frame) {
			t.Fatalf("region %s (%v) exceeds the 1920x1080 frame", r.Name, r.Rect)
		}
		if !r.Rect.In(fieldBounds) {
			t.Fatalf("region %s (%v) falls outside the preview crop %v", r.Name, r.Rect, fieldBounds)
		}
	}
}

package motion

import (
	"math"
	"testing"

	"github.com/wricardo/sokoban/game/grid"
)

func TestNewReconciler_Validation(t *testing.T) {
	tests := []struct {
		name      string
		cellSize  float64
		smoothing float64
		valid     bool
	}{
		{"defaults", 64, DefaultSmoothing, true},
		{"snap", 1, 1, true},
		{"zero cell", 0, 0.3, false},
		{"negative cell", -1, 0.3, false},
		{"NaN cell", math.NaN(), 0.3, false},
		{"zero smoothing", 64, 0, false},
		{"smoothing above one", 64, 1.5, false},
		{"NaN smoothing", 64, math.NaN(), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewReconciler(test.cellSize, test.smoothing)
			if (err == nil) != test.valid {
				t.Errorf("expected valid=%v, got err=%v", test.valid, err)
			}
		})
	}
}

func TestLerp_KeepsDepth(t *testing.T) {
	got := Lerp(Vec3{X: 0, Y: 10, Z: 2}, Vec3{X: 10, Y: 0, Z: 99}, 0.3)
	if math.Abs(got.X-3) > 1e-9 || math.Abs(got.Y-7) > 1e-9 {
		t.Errorf("unexpected lerp result %+v", got)
	}
	if got.Z != 2 {
		t.Errorf("expected depth 2 untouched, got %v", got.Z)
	}
}

func TestStep_Converges(t *testing.T) {
	r, err := NewReconciler(1, DefaultSmoothing)
	if err != nil {
		t.Fatalf("NewReconciler failed: %v", err)
	}

	target := GridPosition{X: 3, Y: -2}
	t3 := r.Target(target, 0)
	v := Vec3{X: 0, Y: 0, Z: 1}

	dist := func(v Vec3) float64 {
		return math.Hypot(t3.X-v.X, t3.Y-v.Y)
	}

	prev := dist(v)
	for i := 0; i < 40; i++ {
		v = r.Step(v, target)
		d := dist(v)
		if d >= prev {
			t.Fatalf("tick %d: distance did not decrease (%v -> %v)", i, prev, d)
		}
		if v.X == t3.X || v.Y == t3.Y {
			t.Fatalf("tick %d: reached target exactly", i)
		}
		if v.X > t3.X || v.Y < t3.Y {
			t.Fatalf("tick %d: overshot target: %+v", i, v)
		}
		if v.Z != 1 {
			t.Fatalf("tick %d: depth changed to %v", i, v.Z)
		}
		prev = d
	}

	if prev > 1e-4 {
		t.Errorf("expected distance to approach zero, still %v", prev)
	}
	if !r.Arrived(v, target, 1e-3) {
		t.Error("expected Arrived within tolerance after 40 ticks")
	}
}

func TestStep_GeometricDecay(t *testing.T) {
	r, _ := NewReconciler(10, DefaultSmoothing)
	v := Vec3{}
	g := GridPosition{X: 1}
	for n := 1; n <= 5; n++ {
		v = r.Step(v, g)
		expected := 10 * (1 - math.Pow(1-DefaultSmoothing, float64(n)))
		if math.Abs(v.X-expected) > 1e-9 {
			t.Errorf("tick %d: expected x=%v, got %v", n, expected, v.X)
		}
	}
}

func TestTick_AllBodies(t *testing.T) {
	r, _ := NewReconciler(2, 0.5)
	a := &Body{Grid: GridPosition{X: 1, Y: 0}}
	b := &Body{Grid: GridPosition{X: 0, Y: 0}, Translation: Vec3{X: 4, Y: 4, Z: 2}}

	r.Tick([]*Body{a, b})

	if a.Translation != (Vec3{X: 1, Y: 0, Z: 0}) {
		t.Errorf("unexpected translation for a: %+v", a.Translation)
	}
	if b.Translation != (Vec3{X: 2, Y: 2, Z: 2}) {
		t.Errorf("unexpected translation for b: %+v", b.Translation)
	}
}

func TestPlaceAndArrived(t *testing.T) {
	r, _ := NewReconciler(32, DefaultSmoothing)
	b := &Body{Grid: GridPosition{X: 2, Y: 3}, Translation: Vec3{Z: 1}}
	if r.Arrived(b.Translation, b.Grid, 0.5) {
		t.Error("expected not arrived before placing")
	}
	r.Place(b)
	if b.Translation != (Vec3{X: 64, Y: 96, Z: 1}) {
		t.Errorf("unexpected placed translation %+v", b.Translation)
	}
	if !r.Arrived(b.Translation, b.Grid, 0) {
		t.Error("expected arrived after placing")
	}
}

func TestGridPosition_Vec(t *testing.T) {
	v := grid.Vec{X: 4, Y: 7}
	if got := FromVec(v).Vec(); got != v {
		t.Errorf("expected %v, got %v", v, got)
	}
}

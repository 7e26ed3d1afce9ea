package discovery

import (
	"math/rand"
	"testing"
	"time"

	"github.com/xonecas/zoea-discovery/internal/constants"
	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

func TestBuildDestinationsCoversGalaxy(t *testing.T) {
	calc := galaxy.NewCalculator(galaxy.ServerData{Galaxies: 9, Systems: 5})
	origin := galaxy.Coordinate{Galaxy: 2, System: 3, Position: 8}

	q := BuildDestinations(origin, 5, rand.New(rand.NewSource(1)), calc.Distance)
	if q.Len() != 75 {
		t.Fatalf("expected 75 destinations, got %d", q.Len())
	}

	seen := make(map[galaxy.Coordinate]bool)
	for q.Len() > 0 {
		c, _ := q.Next()
		if c.Galaxy != 2 {
			t.Errorf("destination %v outside origin galaxy", c)
		}
		if c.System < 1 || c.System > 5 || c.Position < 1 || c.Position > 15 {
			t.Errorf("destination %v out of range", c)
		}
		if seen[c] {
			t.Errorf("destination %v returned twice", c)
		}
		seen[c] = true
	}
	if len(seen) != 75 {
		t.Errorf("expected 75 unique destinations, got %d", len(seen))
	}
}

func TestBuildDestinationsOrderedByDistance(t *testing.T) {
	calc := galaxy.NewCalculator(galaxy.ServerData{Galaxies: 9, Systems: 40})
	origin := galaxy.Coordinate{Galaxy: 1, System: 20, Position: 4}

	var reference []float64
	for seed := int64(0); seed < 5; seed++ {
		q := BuildDestinations(origin, 40, rand.New(rand.NewSource(seed)), calc.Distance)

		var dists []float64
		for q.Len() > 0 {
			c, _ := q.Next()
			dists = append(dists, calc.Distance(origin, c))
		}
		for i := 1; i < len(dists); i++ {
			if dists[i] < dists[i-1] {
				t.Fatalf("seed %d: distance decreased at %d (%v < %v)", seed, i, dists[i], dists[i-1])
			}
		}

		if reference == nil {
			reference = dists
			continue
		}
		for i := range dists {
			if dists[i] != reference[i] {
				t.Fatalf("seed %d: distance sequence differs at %d", seed, i)
			}
		}
	}
}

func TestDestinationQueueSingleUse(t *testing.T) {
	calc := galaxy.NewCalculator(galaxy.ServerData{Galaxies: 9, Systems: 1})
	q := BuildDestinations(galaxy.Coordinate{Galaxy: 1, System: 1, Position: 1}, 1, rand.New(rand.NewSource(1)), calc.Distance)

	first, ok := q.Next()
	if !ok {
		t.Fatal("expected a destination")
	}
	if first != (galaxy.Coordinate{Galaxy: 1, System: 1, Position: 1}) {
		t.Errorf("expected own position first, got %v", first)
	}
	for q.Len() > 0 {
		q.Next()
	}
	if _, ok := q.Next(); ok {
		t.Error("expected drained queue to stay empty")
	}
}

func TestSelectOrigin(t *testing.T) {
	calc := galaxy.NewCalculator(galaxy.ServerData{Galaxies: 9, Systems: 499})
	poor := galaxy.Resources{Metal: 100}

	candidates := []galaxy.Celestial{
		{ID: 1, Coordinate: galaxy.Coordinate{Galaxy: 3, System: 1, Position: 1}, Resources: MinResources},
		{ID: 2, Coordinate: galaxy.Coordinate{Galaxy: 1, System: 2, Position: 1}, Resources: poor},
		{ID: 3, Coordinate: galaxy.Coordinate{Galaxy: 1, System: 50, Position: 1}, Resources: MinResources},
	}

	got, ok := SelectOrigin(candidates, OriginReference, calc.Distance)
	if !ok {
		t.Fatal("expected an origin")
	}
	if got.ID != 3 {
		t.Errorf("expected nearest funded origin 3, got %d", got.ID)
	}

	// Input order must be left alone
	if candidates[0].ID != 1 {
		t.Error("SelectOrigin reordered its input")
	}

	_, ok = SelectOrigin([]galaxy.Celestial{candidates[1]}, OriginReference, calc.Distance)
	if ok {
		t.Error("expected no origin when none is funded")
	}
	if _, ok := SelectOrigin(nil, OriginReference, calc.Distance); ok {
		t.Error("expected no origin for empty candidates")
	}
}

func TestRandomIntervalWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	min, max := 2*time.Second, 5*time.Second

	for i := 0; i < 1000; i++ {
		d := RandomInterval(rng, min, max)
		if d < min || d > max {
			t.Fatalf("interval %v outside [%v, %v]", d, min, max)
		}
	}
	if d := RandomInterval(rng, max, min); d < min || d > max {
		t.Errorf("swapped bounds gave %v", d)
	}
	if d := RandomInterval(rng, min, min); d != min {
		t.Errorf("expected %v for equal bounds, got %v", min, d)
	}
}

func TestNextInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		d := NextInterval(rng, time.Minute, 2*time.Minute, false, time.Hour)
		if d < time.Minute || d > 2*time.Minute {
			t.Fatalf("regular interval %v outside bounds", d)
		}
	}

	for i := 0; i < 200; i++ {
		d := NextInterval(rng, time.Minute, 2*time.Minute, true, 90*time.Second)
		if d < 90*time.Second+constants.MinJitter || d > 90*time.Second+constants.MaxJitter {
			t.Fatalf("delayed interval %v not near fleet return", d)
		}
	}

	for i := 0; i < 200; i++ {
		d := NextInterval(rng, 0, 0, false, 0)
		if d <= 0 {
			t.Fatalf("expected positive interval, got %v", d)
		}
		if d < constants.MinJitter || d > constants.MaxJitter {
			t.Fatalf("expected jitter fallback, got %v", d)
		}
	}

	if d := NextInterval(rng, 0, 0, true, 0); d <= 0 {
		t.Errorf("expected positive delayed interval without fleets, got %v", d)
	}
}

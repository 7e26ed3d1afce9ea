package discovery

import (
	"math/rand"
	"sort"

	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

// DestinationQueue hands out destinations nearest first. Each coordinate is
// returned once; the queue cannot be rewound.
type DestinationQueue struct {
	items []galaxy.Coordinate
}

// BuildDestinations lists every position of the origin's galaxy, shuffles them
// and then orders them by ascending distance from origin. Ties keep their
// shuffled order.
func BuildDestinations(origin galaxy.Coordinate, systems int, rng *rand.Rand, dist DistanceFunc) *DestinationQueue {
	items := make([]galaxy.Coordinate, 0, systems*galaxy.PositionsPerSystem)
	for s := 1; s <= systems; s++ {
		for p := 1; p <= galaxy.PositionsPerSystem; p++ {
			items = append(items, galaxy.Coordinate{Galaxy: origin.Galaxy, System: s, Position: p})
		}
	}

	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})

	distances := make(map[galaxy.Coordinate]float64, len(items))
	for _, c := range items {
		distances[c] = dist(origin, c)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return distances[items[i]] < distances[items[j]]
	})

	return &DestinationQueue{items: items}
}

// Next removes and returns the nearest remaining destination.
func (q *DestinationQueue) Next() (galaxy.Coordinate, bool) {
	if len(q.items) == 0 {
		return galaxy.Coordinate{}, false
	}
	c := q.items[0]
	q.items = q.items[1:]
	return c, true
}

// Len returns the number of destinations left.
func (q *DestinationQueue) Len() int {
	return len(q.items)
}

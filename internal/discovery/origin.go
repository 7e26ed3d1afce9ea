package discovery

import (
	"sort"

	"github.com/xonecas/zoea-discovery/internal/constants"
	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

// MinResources is what an origin must hold to fund one discovery fleet.
var MinResources = galaxy.Resources{
	Metal:     constants.DiscoveryCostMetal,
	Crystal:   constants.DiscoveryCostCrystal,
	Deuterium: constants.DiscoveryCostDeuterium,
}

// OriginReference is the point origins are ranked against.
var OriginReference = galaxy.Coordinate{Galaxy: 1, System: 1, Position: 1}

// DistanceFunc measures the distance between two coordinates.
type DistanceFunc func(a, b galaxy.Coordinate) float64

// SelectOrigin returns the candidate nearest to ref that holds MinResources.
func SelectOrigin(candidates []galaxy.Celestial, ref galaxy.Coordinate, dist DistanceFunc) (galaxy.Celestial, bool) {
	sorted := make([]galaxy.Celestial, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return dist(sorted[i].Coordinate, ref) < dist(sorted[j].Coordinate, ref)
	})

	for _, c := range sorted {
		if c.Resources.IsEnoughFor(MinResources) {
			return c, true
		}
	}
	return galaxy.Celestial{}, false
}

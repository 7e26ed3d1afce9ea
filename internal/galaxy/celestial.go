package galaxy

import (
	"fmt"
	"time"
)

// CelestialType distinguishes planets from moons.
type CelestialType string

const (
	CelestialPlanet CelestialType = "planet"
	CelestialMoon   CelestialType = "moon"
)

// Celestial is an owned planet or moon.
type Celestial struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Type       CelestialType `json:"type"`
	Coordinate Coordinate    `json:"coordinate"`
	Resources  Resources     `json:"resources"`
}

func (c Celestial) String() string {
	return fmt.Sprintf("%s %s", c.Name, c.Coordinate)
}

// MissionType identifies what a fleet is doing.
type MissionType int

// Mission ids as reported by the game server.
const (
	MissionAttack     MissionType = 1
	MissionTransport  MissionType = 3
	MissionDeploy     MissionType = 4
	MissionSpy        MissionType = 6
	MissionColonize   MissionType = 7
	MissionRecycle    MissionType = 8
	MissionExpedition MissionType = 15
	MissionDiscovery  MissionType = 18
)

// FleetMission is an active fleet.
type FleetMission struct {
	ID          int64       `json:"id"`
	Mission     MissionType `json:"mission"`
	Origin      Coordinate  `json:"origin"`
	Destination Coordinate  `json:"destination"`
	// BackIn is the number of seconds until the fleet is home, when known.
	BackIn *int64 `json:"back_in,omitempty"`
}

// CountMissions returns how many fleets fly the given mission.
func CountMissions(fleets []FleetMission, mission MissionType) int {
	n := 0
	for _, f := range fleets {
		if f.Mission == mission {
			n++
		}
	}
	return n
}

// SoonestReturn returns the shortest known return time among fleets.
// Fleets without a return time are ignored; the result is 0 when none is known.
func SoonestReturn(fleets []FleetMission) time.Duration {
	var soonest *int64
	for _, f := range fleets {
		if f.BackIn == nil {
			continue
		}
		if soonest == nil || *f.BackIn < *soonest {
			soonest = f.BackIn
		}
	}
	if soonest == nil {
		return 0
	}
	return time.Duration(*soonest) * time.Second
}

// SlotUsage is the fleet slot capacity of the account.
type SlotUsage struct {
	Total int `json:"total"`
	Used  int `json:"used"`
	Free  int `json:"free"`
}

// ServerData is the universe shape needed for distance math.
type ServerData struct {
	Galaxies    int  `json:"galaxies"`
	Systems     int  `json:"systems"`
	DonutGalaxy bool `json:"donut_galaxy"`
	DonutSystem bool `json:"donut_system"`
}

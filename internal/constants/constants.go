package constants

import "time"

// ActivityName identifies the discovery activity in logs, events and history.
const ActivityName = "AutoDiscovery"

// DiscoveryCostMetal, DiscoveryCostCrystal and DiscoveryCostDeuterium are the
// resources an origin must hold before a discovery fleet is sent.
const (
	DiscoveryCostMetal     = 5000
	DiscoveryCostCrystal   = 1000
	DiscoveryCostDeuterium = 500
)

// FailureCooldown blacklists a coordinate after a failed send.
const FailureCooldown = 24 * time.Hour

// SuccessCooldown blacklists a coordinate after a discovery fleet was sent to it.
const SuccessCooldown = 7 * 24 * time.Hour

// MinJitter and MaxJitter bound the "some seconds" random delay added to
// delayed reschedules and used in place of non-positive intervals.
const (
	MinJitter = 5 * time.Second
	MaxJitter = 15 * time.Second
)

// MinFreeSlotsToContinue stops the dispatch loop and switches to delay mode
// once free slots drop to this value.
const MinFreeSlotsToContinue = 1

// GameRequestTimeout caps a single request to the game bridge.
const GameRequestTimeout = 30 * time.Second

// MinEventBusBufferSize is the minimum buffer per subscriber channel.
const MinEventBusBufferSize = 1000

// RecentCyclesLimit is the number of cycles shown by history views.
const RecentCyclesLimit = 20

// ConfigReloadDebounce collapses bursts of file events into one reload.
const ConfigReloadDebounce = 250 * time.Millisecond

// CycleHistoryRetention is the number of stored cycles kept at startup.
const CycleHistoryRetention = 1000

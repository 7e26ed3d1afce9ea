// Package core hosts the recurring discovery activity: its timer loop and the
// event bus that reports what each cycle did.
package core

import (
	"time"
)

// RunnerState represents the lifecycle of a recurring activity.
type RunnerState string

const (
	RunnerStateIdle    RunnerState = "idle"
	RunnerStateWaiting RunnerState = "waiting"
	RunnerStateRunning RunnerState = "running"
	RunnerStateStopped RunnerState = "stopped"
)

// EventType identifies the type of event.
type EventType string

const (
	EventCycleStarted     EventType = "cycle_started"
	EventCycleFinished    EventType = "cycle_finished"
	EventMissionSent      EventType = "mission_sent"
	EventMissionFailed    EventType = "mission_failed"
	EventActivityStopped  EventType = "activity_stopped"
	EventActivityResumed  EventType = "activity_resumed"
	EventRunnerState      EventType = "runner_state"
	EventConfigReloaded   EventType = "config_reloaded"
	EventCycleRescheduled EventType = "cycle_rescheduled"
)

// Event represents something that happened to an activity.
type Event struct {
	Type      EventType
	Activity  string
	Data      interface{}
	Timestamp time.Time
}

// MissionData describes a single discovery send.
type MissionData struct {
	Origin      string
	Destination string
}

// CycleData summarises a finished cycle.
type CycleData struct {
	CycleID    string
	Reason     string
	Origin     string
	Dispatched int
	Failures   int
	Skips      int
	Stopped    bool
	Delayed    bool
	Interval   time.Duration
	NextRun    time.Time
	Err        string
}

// StateChangeData contains data for runner state changes.
type StateChangeData struct {
	OldState RunnerState
	NewState RunnerState
}

// RescheduleData carries the next planned run.
type RescheduleData struct {
	Interval time.Duration
	NextRun  time.Time
}

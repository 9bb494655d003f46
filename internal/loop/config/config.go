// Package config centralizes all tunable simulation parameters.
package config

import "time"

// View resolution - the visible viewport in logical units.
// Actual rendering scales to fit terminal size.
const (
	ViewWidth  = 120 // Logical viewport width
	ViewHeight = 80  // Logical viewport height (in sub-pixels, so 40 terminal rows)
)

// World - a cube centered on the origin, in Å.
const (
	WorldHalfSize = 20.0
	// GridCellSize is twice the largest expected molecule radius.
	GridCellSize = 8.0
)

// Environment
const (
	DefaultTemperature = 298.0 // K
	MinTemperature     = 50.0
	MaxTemperature     = 1500.0
	TemperatureStep    = 25.0
	DefaultReaction    = "sn2"
)

// Motion
const (
	// ReferenceSpeed is the visual speed, Å/s, of a molecule of ReferenceMass
	// at room temperature.
	ReferenceSpeed = 4.0
	ReferenceMass  = 30.0
	// VelocityScale converts visual Å/s to m/s for collision energies.
	VelocityScale = 650.0
	// ReleaseSpeed is the kick, Å/s, given to a departing leaving group.
	ReleaseSpeed = 2.0
	MaxSpin      = 1.5 // rad/s
)

// Effects
const (
	HighlightSeconds = 1.2
	// RevertTicks is how long a product keeps its reaction tint.
	RevertTicks = 90
	// RecentEvents is the number of events carried in each snapshot.
	RecentEvents = 8
)

// Collision
const (
	HullSanityFactor = 2.0
)

// Spawning
const (
	InitialMolecules = 12
)

// Shutdown
const (
	ShutdownDisplaySeconds = 5.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 300 // Seconds
	InactivityDisconnectUser = 360 // Seconds
)

// Client rendering
const (
	ClientTargetFPS       = 30
	ClientTargetFrameTime = time.Second / ClientTargetFPS
	// Max render resolution; larger terminals get a centered, bordered view.
	MaxTermWidth  = 200
	MaxTermHeight = 60
	// CameraSpeed is the orbit rate, rad/s, while an arrow key is held.
	CameraSpeed = 1.5
	// NoticeSeconds is how long a server message stays on screen.
	NoticeSeconds = 4.0
	MaxNotices    = 3
	EventLines    = 5
)

// Server tick rate
const (
	ServerTickRate = 60
	ServerTickTime = time.Second / ServerTickRate
)

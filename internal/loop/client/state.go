package client

import (
	"time"

	"github.com/tomz197/reactyl/internal/draw"
	"github.com/tomz197/reactyl/internal/input"
)

// ScreenState is the screen a client is showing.
type ScreenState int

const (
	ScreenStart    ScreenState = iota // Title and controls
	ScreenRunning                     // Live simulation
	ScreenHelp                        // Controls over a running simulation
	ScreenShutdown                    // Server is shutting down
)

// notice is a server message shown for a while.
type notice struct {
	text string
	err  bool
	ttl  float64
}

// ClientState holds per-viewer state. The simulation itself is shared;
// only the camera and the screen differ between clients.
type ClientState struct {
	Input         input.Input
	Screen        ScreenState
	Camera        draw.Camera
	Running       bool
	notices       []notice
	delta         time.Duration
	shutdownTimer float64 // Countdown before auto-disconnect on shutdown
	isInactive    bool

	prevScreen  ScreenState
	wasInactive bool
}

// NewClientState creates a state on the start screen with the default
// camera for a world of the given half size.
func NewClientState(halfSize float64) *ClientState {
	return &ClientState{
		Screen:  ScreenStart,
		Camera:  draw.DefaultCamera(halfSize),
		Running: true,
	}
}

// addNotice keeps the newest limit notices.
func (s *ClientState) addNotice(n notice, limit int) {
	s.notices = append(s.notices, n)
	if over := len(s.notices) - limit; over > 0 {
		s.notices = s.notices[over:]
	}
}

// ageNotices drops notices whose time ran out.
func (s *ClientState) ageNotices(dt float64) {
	kept := s.notices[:0]
	for _, n := range s.notices {
		n.ttl -= dt
		if n.ttl > 0 {
			kept = append(kept, n)
		}
	}
	s.notices = kept
}

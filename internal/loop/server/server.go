package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/reactyl/internal/event"
	"github.com/tomz197/reactyl/internal/loop"
	"github.com/tomz197/reactyl/internal/loop/config"
)

var (
	ErrTemperatureRange = errors.New("temperature out of range")
	ErrNoTemplates      = errors.New("no templates configured")
	ErrUnknownTemplate  = errors.New("template not configured")
)

// maxDelta caps the simulated time of one tick after a stall.
const maxDelta = 100 * time.Millisecond

// Host is the interface clients use to talk to the simulation server.
// Decouples the Client from the concrete Server, so tests can drive a
// client against a fake.
type Host interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	Send(clientID int, cmd Command)
	Snapshot() *loop.Snapshot
}

// Server runs one shared simulation and applies commands from all clients
// on the tick goroutine.
type Server struct {
	world        *World
	logger       *log.Logger
	snapshot     atomic.Pointer[loop.Snapshot]
	clients      map[int]*ClientHandle
	nextClientID int
	commandCh    chan ClientCommand
	registerCh   chan *ClientHandle
	unregisterCh chan int
	mu           sync.RWMutex

	nextTemplate int
	unsubscribe  []func()
}

// Compile-time check that Server implements Host.
var _ Host = (*Server)(nil)

// ClientHandle represents a client's connection to the server.
type ClientHandle struct {
	ID       int
	Username string
	EventsCh chan ClientEvent // closed when the server drops the client
}

// CommandKind identifies a client command.
type CommandKind int

const (
	CommandTogglePause CommandKind = iota
	CommandPause
	CommandResume
	CommandAdjustTemperature // Value is a delta in K, clamped to the allowed range
	CommandSetTemperature    // Value in K
	CommandSetReaction       // Name is the reaction type id
	CommandCycleReaction
	CommandSpawn // Name is a template; empty cycles through the configured ones
	CommandReset
)

// Command changes the shared simulation.
type Command struct {
	Kind  CommandKind
	Value float64
	Name  string
}

// ClientCommand is a command from a specific client.
type ClientCommand struct {
	ClientID int
	Command  Command
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventNotice ClientEventType = iota
	EventError
	EventServerShutdown
)

// ClientEvent is a message from server to client.
type ClientEvent struct {
	Type ClientEventType
	Text string
}

// NewServer creates a server driving world.
func NewServer(world *World, logger *log.Logger) *Server {
	s := &Server{
		world:        world,
		logger:       logger,
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		commandCh:    make(chan ClientCommand, 256),
		registerCh:   make(chan *ClientHandle, 16),
		unregisterCh: make(chan int, 16),
	}
	s.unsubscribe = []func(){
		world.Bus.Subscribe(event.KindReactionCompleted, func(e event.Event) {
			s.broadcast(ClientEvent{Type: EventNotice, Text: event.Summary(e)})
		}),
		world.Bus.Subscribe(event.KindErrorOccurred, func(e event.Event) {
			s.broadcast(ClientEvent{Type: EventError, Text: event.Summary(e)})
		}),
	}
	s.snapshot.Store(world.Orchestrator.Snapshot())
	return s
}

// World returns the simulation the server drives.
func (s *Server) World() *World { return s.world }

// Run ticks the simulation every tickTime. Blocks until the context is
// cancelled.
func (s *Server) Run(ctx context.Context, tickTime time.Duration) {
	lastTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frameStart := time.Now()
		delta := min(frameStart.Sub(lastTime), maxDelta)
		lastTime = frameStart

		s.Step(delta.Seconds())

		elapsed := time.Since(frameStart)
		if elapsed < tickTime {
			time.Sleep(tickTime - elapsed)
		}
	}
}

// Step processes registrations and pending commands, then advances the
// simulation by dt seconds and publishes the new snapshot.
func (s *Server) Step(dt float64) {
	s.processRegistrations()
	s.processCommands()
	s.snapshot.Store(s.world.Orchestrator.Tick(dt))
}

// Shutdown gracefully shuts down the server by notifying all connected clients
// and waiting for them to disconnect (up to the given timeout).
// The caller should cancel the server context after Shutdown returns.
func (s *Server) Shutdown(timeout time.Duration) {
	s.broadcast(ClientEvent{Type: EventServerShutdown})

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			if s.ClientCount() == 0 {
				return
			}
		}
	}
}

// Close detaches the server from the event bus and tears the world down.
// Call it after Run has returned.
func (s *Server) Close() {
	for _, fn := range s.unsubscribe {
		fn()
	}
	s.unsubscribe = nil
	s.world.Orchestrator.Close()
}

// RegisterClient registers a new client with the given username and returns its handle.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	s.mu.Unlock()

	handle := &ClientHandle{
		ID:       id,
		Username: username,
		EventsCh: make(chan ClientEvent, 16),
	}

	s.registerCh <- handle
	return handle
}

// UnregisterClient removes a client from the server.
func (s *Server) UnregisterClient(clientID int) {
	s.unregisterCh <- clientID
}

// Send queues a command from a client for the next tick.
func (s *Server) Send(clientID int, cmd Command) {
	select {
	case s.commandCh <- ClientCommand{ClientID: clientID, Command: cmd}:
	default:
		// Command channel full, drop command
	}
}

// Snapshot returns the latest published snapshot.
func (s *Server) Snapshot() *loop.Snapshot {
	return s.snapshot.Load()
}

// ClientCount is the number of registered clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// processRegistrations handles pending client registrations/unregistrations.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.clients[handle.ID] = handle
			s.mu.Unlock()
			s.logger.Info("client joined", "client", handle.ID, "user", handle.Username)
		case clientID := <-s.unregisterCh:
			s.mu.Lock()
			if handle, ok := s.clients[clientID]; ok {
				close(handle.EventsCh)
				delete(s.clients, clientID)
				s.logger.Info("client left", "client", clientID, "user", handle.Username)
			}
			s.mu.Unlock()
		default:
			return
		}
	}
}

// processCommands applies all pending commands in arrival order.
func (s *Server) processCommands() {
	for {
		select {
		case cc := <-s.commandCh:
			s.mu.RLock()
			handle, ok := s.clients[cc.ClientID]
			s.mu.RUnlock()
			if !ok {
				continue
			}
			notice, err := s.apply(cc.Command)
			switch {
			case err != nil:
				s.logger.Warn("command failed", "user", handle.Username, "err", err)
				s.notify(handle, ClientEvent{Type: EventError, Text: err.Error()})
			case notice != "":
				s.logger.Info("command", "user", handle.Username, "change", notice)
				s.broadcast(ClientEvent{Type: EventNotice, Text: handle.Username + ": " + notice})
			}
		default:
			return
		}
	}
}

// apply runs one command and describes the change.
func (s *Server) apply(cmd Command) (string, error) {
	orc := s.world.Orchestrator
	switch cmd.Kind {
	case CommandTogglePause:
		if orc.Pausing() {
			orc.Resume()
			return "resumed", nil
		}
		orc.Pause()
		return "paused", nil
	case CommandPause:
		orc.Pause()
		return "paused", nil
	case CommandResume:
		orc.Resume()
		return "resumed", nil
	case CommandAdjustTemperature:
		t := math.Max(config.MinTemperature, math.Min(config.MaxTemperature, orc.Temperature()+cmd.Value))
		return s.setTemperature(t)
	case CommandSetTemperature:
		if cmd.Value < config.MinTemperature || cmd.Value > config.MaxTemperature {
			return "", fmt.Errorf("%w: %.0f K not in [%.0f, %.0f]",
				ErrTemperatureRange, cmd.Value, config.MinTemperature, config.MaxTemperature)
		}
		return s.setTemperature(cmd.Value)
	case CommandSetReaction:
		return s.setReaction(cmd.Name)
	case CommandCycleReaction:
		return s.setReaction(s.world.Catalog.Next(orc.Reaction().ID))
	case CommandSpawn:
		return s.spawn(cmd.Name)
	case CommandReset:
		orc.Reset()
		if err := s.world.Populate(); err != nil {
			return "", err
		}
		return "reset the world", nil
	}
	return "", fmt.Errorf("unknown command %d", cmd.Kind)
}

func (s *Server) setTemperature(t float64) (string, error) {
	orc := s.world.Orchestrator
	if t == orc.Temperature() {
		return "", nil
	}
	if err := orc.SetTemperature(t); err != nil {
		return "", err
	}
	return fmt.Sprintf("temperature %.0f K", t), nil
}

func (s *Server) setReaction(id string) (string, error) {
	if err := s.world.Orchestrator.SetReactionType(id); err != nil {
		return "", err
	}
	return "reaction " + id, nil
}

func (s *Server) spawn(name string) (string, error) {
	templates := s.world.Templates
	if name == "" {
		if len(templates) == 0 {
			return "", ErrNoTemplates
		}
		name = templates[s.nextTemplate%len(templates)].Name
		s.nextTemplate++
	}
	st, ok := s.world.Template(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	m, err := s.world.Orchestrator.Spawn(st)
	if err != nil {
		return "", err
	}
	return "spawned " + m.Name, nil
}

// notify sends an event to one client without blocking the tick.
func (s *Server) notify(handle *ClientHandle, ev ClientEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.clients[handle.ID]; !ok {
		return
	}
	select {
	case handle.EventsCh <- ev:
	default:
	}
}

// broadcast sends an event to every client without blocking.
func (s *Server) broadcast(ev ClientEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ev:
		default:
		}
	}
}

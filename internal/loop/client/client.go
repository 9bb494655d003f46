package client

import (
	"bufio"
	"io"
	"time"

	"github.com/tomz197/reactyl/internal/draw"
	"github.com/tomz197/reactyl/internal/input"
	"github.com/tomz197/reactyl/internal/loop/config"
	"github.com/tomz197/reactyl/internal/loop/server"
)

// Client handles rendering and input for a single connection.
type Client struct {
	server       server.Host
	handle       *server.ClientHandle
	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	hud          draw.HUD
	scene        draw.Scene
	reactions    []string
	reader       *bufio.Reader
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	termSizeFunc draw.TermSizeFunc
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	// HalfSize of the world cube, for the camera and the box wireframe.
	HalfSize float64
	// Reactions are the selectable reaction ids; digit n picks the nth.
	Reactions []string
}

// NewClient creates a new client connected to the given server.
func NewClient(host server.Host, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	halfSize := opts.HalfSize
	if halfSize <= 0 {
		halfSize = config.WorldHalfSize
	}

	handle := host.RegisterClient(opts.Username)
	state := NewClientState(halfSize)

	// Create canvas with clamped dimensions for max render resolution
	termWidth, termHeight, _ := termSizeFunc()
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, config.ViewWidth, config.ViewHeight)
	canvas.SetOffset(offsetCol, offsetRow)

	return &Client{
		server:       host,
		handle:       handle,
		state:        state,
		canvas:       canvas,
		chunkWriter:  draw.NewChunkWriter(w, offsetCol, offsetRow),
		hud:          draw.NewHUD(w),
		scene:        draw.Scene{Camera: state.Camera, HalfSize: halfSize},
		reactions:    opts.Reactions,
		reader:       r,
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
	}
}

// Run starts the client loop. Blocks until the client quits, idles out or
// the server drops it.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput()
		c.processServerEvents()
		c.updateScreen()
		c.update()

		if err := c.drawFrame(); err != nil {
			c.server.UnregisterClient(c.handle.ID)
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	c.server.UnregisterClient(c.handle.ID)

	draw.ClearScreen(c.writer)
	return nil
}

// processInput reads input and tracks inactivity.
func (c *Client) processInput() {
	c.state.Input = input.ReadInput(c.inputStream)

	if len(c.state.Input.Pressed) > 0 {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if c.state.Input.Has(input.KeyQuit) {
		c.state.Running = false
	}
}

// processServerEvents handles events from the server.
func (c *Client) processServerEvents() {
	for {
		select {
		case ev, ok := <-c.handle.EventsCh:
			if !ok {
				// Server closed the channel
				c.state.Running = false
				return
			}
			switch ev.Type {
			case server.EventNotice:
				c.state.addNotice(notice{text: ev.Text, ttl: config.NoticeSeconds}, config.MaxNotices)
			case server.EventError:
				c.state.addNotice(notice{text: ev.Text, err: true, ttl: config.NoticeSeconds}, config.MaxNotices)
			case server.EventServerShutdown:
				c.state.Screen = ScreenShutdown
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area (e.g. old borders or offset content).
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.writer)
		c.canvas.ForceRedraw()
	}

	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(termWidth, config.MaxTermWidth)
	renderHeight = min(termHeight, config.MaxTermHeight)
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}

// update advances the current screen.
func (c *Client) update() {
	c.state.ageNotices(c.state.delta.Seconds())
	in := c.state.Input

	switch c.state.Screen {
	case ScreenStart:
		if in.Has(input.KeyEnter) || in.Has(input.KeyPause) {
			c.inputStream.Reset()
			c.state.Screen = ScreenRunning
		}
	case ScreenHelp:
		if in.Has(input.KeyHelp) || in.Has(input.KeyEscape) || in.Has(input.KeyEnter) {
			c.state.Screen = ScreenRunning
		}
	case ScreenRunning:
		c.updateRunning(in)
	case ScreenShutdown:
		c.state.shutdownTimer -= c.state.delta.Seconds()
		if c.state.shutdownTimer <= 0 {
			c.state.Running = false
		}
	}
}

// updateRunning turns keys into server commands and orbits the camera.
func (c *Client) updateRunning(in input.Input) {
	for _, k := range in.Keys {
		switch k {
		case input.KeyPause:
			c.send(server.Command{Kind: server.CommandTogglePause})
		case input.KeyHotter:
			c.send(server.Command{Kind: server.CommandAdjustTemperature, Value: config.TemperatureStep})
		case input.KeyColder:
			c.send(server.Command{Kind: server.CommandAdjustTemperature, Value: -config.TemperatureStep})
		case input.KeyReaction:
			c.send(server.Command{Kind: server.CommandCycleReaction})
		case input.KeySpawn:
			c.send(server.Command{Kind: server.CommandSpawn})
		case input.KeyReset:
			c.send(server.Command{Kind: server.CommandReset})
		case input.KeyHelp:
			c.state.Screen = ScreenHelp
		}
	}
	if n := in.Number; n >= 1 && n <= len(c.reactions) {
		c.send(server.Command{Kind: server.CommandSetReaction, Name: c.reactions[n-1]})
	}

	step := config.CameraSpeed * c.state.delta.Seconds()
	var yaw, pitch float64
	if in.Left {
		yaw -= step
	}
	if in.Right {
		yaw += step
	}
	if in.Up {
		pitch += step
	}
	if in.Down {
		pitch -= step
	}
	if yaw != 0 || pitch != 0 {
		c.state.Camera = c.state.Camera.Orbit(yaw, pitch)
	}
}

func (c *Client) send(cmd server.Command) {
	c.server.Send(c.handle.ID, cmd)
}

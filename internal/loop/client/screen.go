package client

import (
	"fmt"
	"time"

	"github.com/tomz197/reactyl/internal/draw"
	"github.com/tomz197/reactyl/internal/loop"
	"github.com/tomz197/reactyl/internal/loop/config"
)

var controlLines = []string{
	"+ / -  . . . . . Temperature",
	"R  . . . . . . Next reaction",
	"1-9  . . . . . Pick reaction",
	"S  . . . . . . . . . . Spawn",
	"SPACE / P  . . . . . . Pause",
	"Arrows / WASD  . . . . Orbit",
	"X  . . . . . . . Reset world",
	"?  . . . . . . . . . .  Help",
	"Q  . . . . . . . . . .  Quit",
}

// drawFrame draws the current frame. The terminal is cleared at the start
// of every frame; the whole frame goes out in one flush.
func (c *Client) drawFrame() error {
	// On screen or inactivity transitions, force a full redraw so UI
	// elements from the previous state don't persist on screen.
	if c.state.Screen != c.state.prevScreen || c.state.isInactive != c.state.wasInactive {
		c.canvas.ForceRedraw()
		c.state.prevScreen = c.state.Screen
		c.state.wasInactive = c.state.isInactive
	}
	c.chunkWriter.WriteString("\033[H\033[2J")
	c.canvas.Clear()

	snapshot := c.server.Snapshot()

	var labels []draw.Label
	if snapshot != nil && c.state.Screen != ScreenShutdown {
		c.scene.Camera = c.state.Camera
		labels = c.scene.Render(c.canvas, snapshot)
	}

	// Render canvas to terminal
	c.canvas.Render(c.chunkWriter)

	// Draw border when terminal exceeds max render resolution
	c.canvas.RenderBorder(c.chunkWriter)

	c.drawUI(snapshot, labels)

	return c.chunkWriter.Flush()
}

// drawUI draws the text overlay.
func (c *Client) drawUI(snapshot *loop.Snapshot, labels []draw.Label) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	if c.state.Screen == ScreenShutdown {
		c.drawShutdownScreen(centerX, centerY)
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen(centerX, centerY)
		return
	}

	switch c.state.Screen {
	case ScreenStart:
		c.drawStartScreen(centerX, centerY)
	case ScreenHelp:
		c.drawHelpScreen(centerX, centerY)
	case ScreenRunning:
		if snapshot != nil {
			c.drawLabels(labels, termWidth, termHeight)
			c.drawHUD(termWidth, termHeight, snapshot)
		}
	}
}

// drawLabels writes molecule names above their molecules, skipping any
// that would not fit.
func (c *Client) drawLabels(labels []draw.Label, termWidth, termHeight int) {
	for _, l := range labels {
		text := c.hud.Label(l)
		width := draw.Width(text)
		col := l.Col - width/2
		if l.Row < 3 || l.Row > termHeight-1 || col < 1 || col+width > termWidth {
			continue
		}
		c.chunkWriter.WriteAt(col, l.Row, text)
	}
}

// drawHUD draws the status lines, server notices and the event log.
func (c *Client) drawHUD(termWidth, termHeight int, snapshot *loop.Snapshot) {
	cw := c.chunkWriter
	cw.WriteAt(2, 1, c.hud.Status(snapshot))
	cw.WriteAt(2, 2, c.hud.Counters(snapshot.Stats))

	for i, n := range c.state.notices {
		text := c.hud.Title(n.text)
		if n.err {
			text = c.hud.Warn(n.text)
		}
		cw.WriteAt(termWidth-draw.Width(text)-1, 3+i, text)
	}

	events := c.hud.Events(snapshot, config.EventLines)
	for i, line := range events {
		row := termHeight - 1 - len(events) + i
		if row > 3 {
			cw.WriteAt(2, row, line)
		}
	}

	hint := c.hud.Dim("? help  q quit")
	cw.WriteAt(termWidth-draw.Width(hint)-1, termHeight, hint)
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	cw := c.chunkWriter
	title := "INACTIVITY WARNING"
	cw.WriteAt(centerX-len(title)/2, centerY-2, c.hud.Warn(title))

	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	cw.WriteAt(centerX-len(msg)/2, centerY, msg)

	hint := "Press any key to continue"
	cw.WriteAt(centerX-len(hint)/2, centerY+2, hint)
}

// drawStartScreen draws the title screen.
func (c *Client) drawStartScreen(centerX, centerY int) {
	// ASCII art title (figlet "small" font)
	titleArt := []string{
		` ___ ___   _   ___ _______   ___    `,
		`| _ \ __| /_\ / __|_   _\ \ / / |   `,
		`|   / _| / _ \ (__  | |  \ V /| |__ `,
		`|_|_\___/_/ \_\___| |_|   |_| |____|`,
		`                                    `,
	}

	titleWidth := 0
	for _, line := range titleArt {
		titleWidth = max(titleWidth, len(line))
	}

	cw := c.chunkWriter
	titleStartY := centerY - 9
	for i, line := range titleArt {
		cw.WriteAt(centerX-titleWidth/2, titleStartY+i, line)
	}

	subtitle := "~ Molecules colliding and reacting in a shared box ~"
	cw.WriteAt(centerX-len(subtitle)/2, titleStartY+len(titleArt), subtitle)

	controlsY := titleStartY + len(titleArt) + 2
	c.drawControls(centerX, controlsY)

	// Blinking start prompt
	if time.Now().UnixMilli()/600%2 == 0 {
		prompt := ">>  Press SPACE to Start  <<"
		cw.WriteAt(centerX-len(prompt)/2, controlsY+len(controlLines)+3, prompt)
	}
}

// drawHelpScreen lists the controls over the running simulation.
func (c *Client) drawHelpScreen(centerX, centerY int) {
	top := centerY - (len(controlLines)+4)/2
	c.drawControls(centerX, top)
	hint := c.hud.Dim("Press ? or ESC to return")
	c.chunkWriter.WriteAt(centerX-draw.Width(hint)/2, top+len(controlLines)+2, hint)
}

func (c *Client) drawControls(centerX, top int) {
	cw := c.chunkWriter
	header := "Controls"
	cw.WriteAt(centerX-len(header)/2, top, c.hud.Title(header))
	for i, line := range controlLines {
		cw.WriteAt(centerX-len(line)/2, top+1+i, line)
	}
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	cw := c.chunkWriter
	title := "SERVER SHUTTING DOWN"
	cw.WriteAt(centerX-len(title)/2, centerY-3, c.hud.Warn(title))

	msg1 := "The simulation is stopping."
	cw.WriteAt(centerX-len(msg1)/2, centerY-1, msg1)

	msg2 := "Please reconnect in a moment."
	cw.WriteAt(centerX-len(msg2)/2, centerY, msg2)

	remaining := int(c.state.shutdownTimer) + 1
	countdown := fmt.Sprintf("Disconnecting in %d seconds...", remaining)
	cw.WriteAt(centerX-len(countdown)/2, centerY+2, countdown)

	hint := "Press Q to disconnect now"
	cw.WriteAt(centerX-len(hint)/2, centerY+4, hint)
}

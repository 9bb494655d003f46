package input

import (
	"bufio"
	"time"
)

// keyHoldDuration is how long an arrow key is considered held after its last
// press. Terminals only report repeats, so holds are inferred.
const keyHoldDuration = 60 * time.Millisecond

// Key is a discrete command key, reported once per press.
type Key int

const (
	KeyNone Key = iota
	KeyQuit
	KeyPause
	KeyHotter
	KeyColder
	KeyReaction
	KeySpawn
	KeyHelp
	KeyReset
	KeyEnter
	KeyEscape
)

// Input is the current frame's input state.
type Input struct {
	// Keys are the command keys pressed since the previous frame, in order.
	Keys []Key
	// Held arrow keys rotate the camera.
	Left, Right, Up, Down bool
	// Number is the last digit pressed this frame, or -1.
	Number  int
	Pressed []byte
}

// Has reports whether k was pressed this frame.
func (in Input) Has(k Key) bool {
	for _, p := range in.Keys {
		if p == k {
			return true
		}
	}
	return false
}

type holdState struct {
	left, right, up, down time.Time
}

// Stream delivers input bytes through a channel and remembers arrow holds.
type Stream struct {
	ch    chan byte
	holds holdState
}

// StartStream spawns a goroutine that reads from r into the stream. The
// channel closes when r fails.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 128)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ReadInput drains the bytes available on the stream without blocking.
func ReadInput(s *Stream) Input {
	var buf []byte
drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}
	return s.parse(buf, time.Now())
}

// Reset forgets held keys, e.g. when a screen changes.
func (s *Stream) Reset() {
	s.holds = holdState{}
}

func (s *Stream) parse(buf []byte, now time.Time) Input {
	in := Input{Number: -1, Pressed: buf}
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			matched := true
			switch buf[i+2] {
			case 'A':
				s.holds.up = now
			case 'B':
				s.holds.down = now
			case 'C':
				s.holds.right = now
			case 'D':
				s.holds.left = now
			default:
				matched = false
			}
			if matched {
				i += 2
				continue
			}
		}
		switch b {
		case 'a', 'A', 'h':
			s.holds.left = now
		case 'd', 'D', 'l':
			s.holds.right = now
		case 'w', 'W', 'k':
			s.holds.up = now
		case 'j':
			s.holds.down = now
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			in.Number = int(b - '0')
		default:
			if k := keyOf(b); k != KeyNone {
				in.Keys = append(in.Keys, k)
			}
		}
	}
	in.Left = now.Sub(s.holds.left) < keyHoldDuration
	in.Right = now.Sub(s.holds.right) < keyHoldDuration
	in.Up = now.Sub(s.holds.up) < keyHoldDuration
	in.Down = now.Sub(s.holds.down) < keyHoldDuration
	return in
}

func keyOf(b byte) Key {
	switch b {
	case 'q', 'Q', '\x03':
		return KeyQuit
	case 'p', 'P', ' ':
		return KeyPause
	case '+', '=':
		return KeyHotter
	case '-', '_':
		return KeyColder
	case 'r', 'R':
		return KeyReaction
	case 's', 'S':
		return KeySpawn
	case '?':
		return KeyHelp
	case 'x', 'X':
		return KeyReset
	case '\n', '\r':
		return KeyEnter
	case '\x1b':
		return KeyEscape
	}
	return KeyNone
}

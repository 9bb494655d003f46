package input

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandKeys(t *testing.T) {
	s := &Stream{}
	in := s.parse([]byte("p+=-rs?q\r"), time.Now())
	assert.Equal(t, []Key{KeyPause, KeyHotter, KeyHotter, KeyColder, KeyReaction, KeySpawn, KeyHelp, KeyQuit, KeyEnter}, in.Keys)
	assert.True(t, in.Has(KeySpawn))
	assert.False(t, in.Has(KeyReset))
	assert.Equal(t, -1, in.Number)
}

func TestParseArrowsAndHolds(t *testing.T) {
	s := &Stream{}
	now := time.Now()
	in := s.parse([]byte("\x1b[A\x1b[D7"), now)
	assert.True(t, in.Up)
	assert.True(t, in.Left)
	assert.False(t, in.Right)
	assert.Empty(t, in.Keys, "escape sequences are not Escape presses")
	assert.Equal(t, 7, in.Number)

	in = s.parse(nil, now.Add(keyHoldDuration/2))
	assert.True(t, in.Up, "still held")

	in = s.parse(nil, now.Add(2*keyHoldDuration))
	assert.False(t, in.Up)

	s.parse([]byte("d"), now)
	s.Reset()
	assert.False(t, s.parse(nil, now).Right)
}

func TestLoneEscape(t *testing.T) {
	s := &Stream{}
	in := s.parse([]byte("\x1b"), time.Now())
	assert.Equal(t, []Key{KeyEscape}, in.Keys)
}

func TestStreamDrains(t *testing.T) {
	s := StartStream(bufio.NewReader(strings.NewReader("rq")))
	var keys []Key
	require.Eventually(t, func() bool {
		keys = append(keys, ReadInput(s).Keys...)
		return len(keys) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []Key{KeyReaction, KeyQuit}, keys)
}

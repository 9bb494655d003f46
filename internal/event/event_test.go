package event

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPublishWithoutSubscribers(t *testing.T) {
	b := NewBus()
	assert.NotPanics(t, func() {
		for _, e := range []Event{Collision{}, ReactionStarted{}, ReactionCompleted{}, ErrorOccurred{}} {
			b.Publish(e)
		}
	})
	assert.Equal(t, 1, b.Published(KindCollisionDetected))
	assert.Equal(t, 0, b.Subscribers(KindReactionStarted))
}

func TestSubscribersReceiveOnlyTheirKind(t *testing.T) {
	b := NewBus()
	var collisions, reactions, all int
	b.Subscribe(KindCollisionDetected, func(Event) { collisions++ })
	b.Subscribe(KindCollisionDetected, func(Event) { collisions++ })
	b.Subscribe(KindReactionCompleted, func(Event) { reactions++ })
	b.SubscribeAll(func(Event) { all++ })

	b.Publish(Collision{})
	b.Publish(ReactionStarted{})

	assert.Equal(t, 2, collisions)
	assert.Equal(t, 0, reactions)
	assert.Equal(t, 2, all)
	assert.Equal(t, 3, b.Subscribers(KindCollisionDetected))
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()
	var got []string
	stopA := b.Subscribe(KindErrorOccurred, func(Event) { got = append(got, "a") })
	b.Subscribe(KindErrorOccurred, func(Event) { got = append(got, "b") })
	stopAll := b.SubscribeAll(func(Event) { got = append(got, "all") })

	b.Publish(ErrorOccurred{})
	stopA()
	stopA()
	stopAll()
	b.Publish(ErrorOccurred{})

	assert.Equal(t, []string{"a", "b", "all", "b"}, got)
}

func TestHandlerMayUnsubscribeItself(t *testing.T) {
	b := NewBus()
	calls := 0
	var stop func()
	stop = b.Subscribe(KindReactionStarted, func(Event) {
		calls++
		stop()
	})
	b.Publish(ReactionStarted{})
	b.Publish(ReactionStarted{})
	assert.Equal(t, 1, calls)
}

func TestMatch(t *testing.T) {
	var seen []Kind
	cases := Cases{
		Collision:         func(c Collision) { seen = append(seen, c.Kind()) },
		ReactionStarted:   func(r ReactionStarted) { seen = append(seen, r.Kind()) },
		ReactionCompleted: func(r ReactionCompleted) { seen = append(seen, r.Kind()) },
		ErrorOccurred:     func(r ErrorOccurred) { seen = append(seen, r.Kind()) },
	}
	for _, e := range []Event{Collision{}, ReactionStarted{}, ReactionCompleted{}, ErrorOccurred{}} {
		Match(e, cases)
	}
	assert.Equal(t, Kinds, seen)

	assert.NotPanics(t, func() { Match(Collision{}, Cases{}) })
	assert.Panics(t, func() { Match(nil, cases) })
}

func TestCollisionSwap(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	c := Collision{A: a, B: b, NameA: "x", NameB: "y", AngleA: 170, AngleB: 20, RelativeVelocity: mgl64.Vec3{1, 2, 3}}
	s := c.Swap()
	assert.Equal(t, b, s.A)
	assert.Equal(t, "y", s.NameA)
	assert.Equal(t, 20.0, s.AngleA)
	assert.Equal(t, mgl64.Vec3{-1, -2, -3}, s.RelativeVelocity)
	assert.Equal(t, c, s.Swap())
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "sn2 -> CH4O (ΔH -81.0 kJ/mol)", Summary(ReactionCompleted{Reaction: "sn2", Formula: "CH4O", Enthalpy: -81, EnthalpyKnown: true}))
	assert.Equal(t, "error in mutation: boom", Summary(ErrorOccurred{Stage: "mutation", Err: errors.New("boom")}))
	assert.Contains(t, Summary(Collision{NameA: "a", NameB: "b", Energy: 85}), "85.0 kJ/mol")
}

package loop

import (
	"sort"

	"github.com/google/uuid"
)

// SceneOwner owns tasks that belong to the scene rather than a molecule.
var SceneOwner = uuid.Nil

// Token identifies a scheduled task for cancellation.
type Token uint64

type task struct {
	token Token
	due   uint64
	owner uuid.UUID
	fn    func()
}

// Scheduler runs fire-later tasks at tick boundaries. Tasks are owned by a
// molecule (or the scene) and are cancelled with their owner, so a task never
// runs against a disposed molecule.
type Scheduler struct {
	tasks map[Token]*task
	next  Token
	ran   int
}

func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[Token]*task)}
}

// After schedules fn to run at tick now+ticks.
func (s *Scheduler) After(now, ticks uint64, owner uuid.UUID, fn func()) Token {
	s.next++
	s.tasks[s.next] = &task{token: s.next, due: now + ticks, owner: owner, fn: fn}
	return s.next
}

// Cancel removes one task. It reports whether the task was still pending.
func (s *Scheduler) Cancel(t Token) bool {
	if _, ok := s.tasks[t]; !ok {
		return false
	}
	delete(s.tasks, t)
	return true
}

// CancelOwner removes every task owned by owner and returns how many.
func (s *Scheduler) CancelOwner(owner uuid.UUID) int {
	n := 0
	for tok, t := range s.tasks {
		if t.owner == owner {
			delete(s.tasks, tok)
			n++
		}
	}
	return n
}

// CancelAll drops every pending task.
func (s *Scheduler) CancelAll() int {
	n := len(s.tasks)
	clear(s.tasks)
	return n
}

// RunDue runs every task due at or before tick, oldest schedule first.
// Tasks scheduled while running wait for a later call.
func (s *Scheduler) RunDue(tick uint64) int {
	var due []*task
	for _, t := range s.tasks {
		if t.due <= tick {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].token < due[j].token
	})
	n := 0
	for _, t := range due {
		// An earlier task may have cancelled this one.
		if _, ok := s.tasks[t.token]; !ok {
			continue
		}
		delete(s.tasks, t.token)
		t.fn()
		n++
	}
	s.ran += n
	return n
}

func (s *Scheduler) Pending() int { return len(s.tasks) }

// Ran is the number of tasks executed so far.
func (s *Scheduler) Ran() int { return s.ran }

package models

import (
	"fmt"
	"time"
)

type ThreadState string

const (
	ThreadStarted   ThreadState = "started"
	ThreadRouting   ThreadState = "routing"
	ThreadRunning   ThreadState = "running"
	ThreadReporting ThreadState = "reporting"
	ThreadClosed    ThreadState = "closed"
	ThreadFailed    ThreadState = "failed"
)

type InvocationStatus string

const (
	InvocationPending   InvocationStatus = "pending"
	InvocationRunning   InvocationStatus = "running"
	InvocationSucceeded InvocationStatus = "succeeded"
	InvocationFailed    InvocationStatus = "failed"
	InvocationTimedOut  InvocationStatus = "timed_out"
)

// AgentInvocation records one agent execution within a thread.
type AgentInvocation struct {
	AgentID   string           `json:"agentId"`
	Status    InvocationStatus `json:"status"`
	Result    *RiskScore       `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	StartedAt time.Time        `json:"startedAt"`
	Duration  time.Duration    `json:"duration"`
}

// ConversationThread tracks one query from arrival to verdict. A sealed
// thread is immutable.
type ConversationThread struct {
	ID          string            `json:"id"`
	Query       Query             `json:"query"`
	Intent      *Intent           `json:"intent,omitempty"`
	State       ThreadState       `json:"state"`
	Invocations []AgentInvocation `json:"invocations"`
	Verdict     *RiskScore        `json:"verdict,omitempty"`
	Sealed      bool              `json:"sealed"`
	CreatedAt   time.Time         `json:"createdAt"`
	ClosedAt    time.Time         `json:"closedAt,omitempty"`
}

// NewConversationThread opens a thread for one incoming query.
func NewConversationThread(id string, q Query, at time.Time) *ConversationThread {
	return &ConversationThread{
		ID:        id,
		Query:     q,
		State:     ThreadStarted,
		CreatedAt: at,
	}
}

// Transition moves the thread to the next state. Invalid transitions and
// writes to sealed threads are rejected.
func (t *ConversationThread) Transition(next ThreadState) error {
	if t.Sealed {
		return fmt.Errorf("thread %s is sealed", t.ID)
	}
	if !validTransition(t.State, next) {
		return fmt.Errorf("invalid thread transition %s -> %s", t.State, next)
	}
	t.State = next
	return nil
}

// Record appends an invocation. Sealed threads reject writes.
func (t *ConversationThread) Record(inv AgentInvocation) error {
	if t.Sealed {
		return fmt.Errorf("thread %s is sealed", t.ID)
	}
	t.Invocations = append(t.Invocations, inv)
	return nil
}

// Seal closes the thread with its final verdict. A sealed thread holds at
// least one invocation.
func (t *ConversationThread) Seal(verdict *RiskScore, at time.Time) error {
	if t.Sealed {
		return fmt.Errorf("thread %s is already sealed", t.ID)
	}
	if len(t.Invocations) == 0 {
		return fmt.Errorf("thread %s has no invocations", t.ID)
	}
	t.Verdict = verdict
	t.ClosedAt = at
	t.Sealed = true
	return nil
}

// Fail moves the thread into the absorbing failed state and seals it.
func (t *ConversationThread) Fail(at time.Time) {
	t.State = ThreadFailed
	t.ClosedAt = at
	t.Sealed = true
}

func validTransition(from, to ThreadState) bool {
	switch from {
	case ThreadStarted:
		return to == ThreadRouting || to == ThreadFailed
	case ThreadRouting:
		return to == ThreadRunning || to == ThreadFailed
	case ThreadRunning:
		return to == ThreadRunning || to == ThreadReporting || to == ThreadFailed
	case ThreadReporting:
		return to == ThreadClosed || to == ThreadFailed
	default:
		return false
	}
}

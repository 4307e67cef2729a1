package service

import (
	"passwordCrackerEngine/internal/core/domain"
	"sync/atomic"
)

// Controller is the run state machine. Running moves to Cancelling on an
// interrupt or straight to Terminated on Found/Exhausted; whichever
// transition happens first wins and disarms the other.
type Controller struct {
	state atomic.Int32
}

func NewController() *Controller {
	return &Controller{}
}

func (c *Controller) State() domain.EngineState {
	return domain.EngineState(c.state.Load())
}

// TryCancel moves Running to Cancelling.
func (c *Controller) TryCancel() bool {
	return c.state.CompareAndSwap(int32(domain.StateRunning), int32(domain.StateCancelling))
}

// TryFinish moves Running to Terminated.
func (c *Controller) TryFinish() bool {
	return c.state.CompareAndSwap(int32(domain.StateRunning), int32(domain.StateTerminated))
}

// Terminate ends a cancellation once the checkpoint is taken.
func (c *Controller) Terminate() {
	c.state.Store(int32(domain.StateTerminated))
}

package runnerdash

import "context"

// Controller validates and executes control actions. Validation runs in
// full before the platform strategy is consulted, so a disallowed verb or
// a forged service name never reaches a subprocess argument list.
type Controller struct {
	strategy ControlStrategy
}

// NewController creates a Controller over the platform's control strategy
func NewController(strategy ControlStrategy) *Controller {
	return &Controller{strategy: strategy}
}

// Control runs the action against the runner and returns the completion
// message. Errors are either *ValidationError (nothing was executed) or
// *ControlError (the tiered chain ran and failed).
func (c *Controller) Control(ctx context.Context, r Runner, a Action) (string, error) {
	if err := ValidateAction(a); err != nil {
		return "", err
	}
	if err := ValidateServiceName(r.Service); err != nil {
		return "", err
	}
	return c.strategy.Control(ctx, r, a)
}

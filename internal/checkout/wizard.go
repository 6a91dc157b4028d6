package checkout

import "context"

// Current returns the active wizard step.
func (e *Engine) Current() Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Step
}

// Advance moves the wizard forward. Leaving Shipping requires the step-1
// validation to pass; leaving Review submits the order. The returned step
// is the position after the call.
func (e *Engine) Advance(ctx context.Context) Step {
	e.mu.Lock()
	switch e.state.Step {
	case StepShipping:
		errs := validateShipping(e.state, e.identity.IsGuest())
		applyShippingErrors(&e.state, errs)
		if len(errs) == 0 {
			e.state.Step = StepPayment
		}
		step := e.state.Step
		e.mu.Unlock()
		return step
	case StepPayment:
		// Payment method has a default; nothing to validate.
		e.state.Step = StepReview
		step := e.state.Step
		e.mu.Unlock()
		return step
	case StepReview:
		e.mu.Unlock()
		e.submit(ctx)
		return e.Current()
	default:
		step := e.state.Step
		e.mu.Unlock()
		return step
	}
}

// Back moves one step toward Shipping. It never validates and never loses
// field data. Success is absorbing.
func (e *Engine) Back() Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state.Step {
	case StepPayment:
		e.state.Step = StepShipping
	case StepReview:
		e.state.Step = StepPayment
	}
	return e.state.Step
}

// Goto jumps to an earlier step. Forward jumps would bypass validation
// and are ignored, as is any jump out of Success.
func (e *Engine) Goto(step Step) Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Step == StepSuccess {
		return e.state.Step
	}
	if step >= StepShipping && step < e.state.Step {
		e.state.Step = step
	}
	return e.state.Step
}

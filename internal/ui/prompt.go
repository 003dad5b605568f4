package ui

import "context"

// Prompter raises the rating banner in the status view. It satisfies
// flow.RatingPrompter.
type Prompter struct {
	requests chan struct{}
}

func NewPrompter() *Prompter {
	return &Prompter{requests: make(chan struct{}, 1)}
}

// RequestReview queues the banner and returns without waiting for the user.
func (p *Prompter) RequestReview(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.requests <- struct{}{}:
	default:
	}
	return nil
}

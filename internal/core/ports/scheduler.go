package ports

import "context"

// Scheduler serialises the reactions of one client.
//
// Post runs fn on the client's event loop after every previously posted
// function. Go runs work off the loop and posts the continuation it returns;
// a nil continuation is skipped.
type Scheduler interface {
	Post(fn func())
	Go(work func(ctx context.Context) func())
}

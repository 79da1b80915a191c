// Package async runs a function on its own goroutine and exposes the result
// through a typed Future.
//
//	fut := async.Async(ctx, userID, lookupPlan)
//	plan, err := fut.AwaitContext(ctx)
//
// Await blocks until completion, AwaitContext and AwaitWithTimeout give up
// early with ErrTimeout (or the context error), and WaitAll collects several
// futures in order. Panics inside the function are returned as ErrPanic.
package async

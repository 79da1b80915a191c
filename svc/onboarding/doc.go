// Package onboarding composes the onboarding state machine, the draft store
// and the outside world.
//
// A Flow owns one user's machine. It begins the flow when the identity
// provider reports a signed-in user, persists step data through draft.Store,
// pushes the route of every new state to a Navigator, and reports each
// transition attempt to a telemetry.Tracker. Progress and Capabilities are
// derived from the machine only, so they always agree with what Send would do.
//
//	flow, err := onboarding.New(onboarding.Deps{
//		Store:     store,
//		Identity:  provider,
//		Navigator: onboarding.NavigatorFunc(redirect),
//		Tracker:   tracker,
//		Logger:    log,
//	})
//	if err != nil {
//		return err
//	}
//	defer flow.Close()
//	if err := flow.Start(ctx); err != nil {
//		return err
//	}
//	saver, _ := flow.AutoSaver("organization")
//	saver.Update(formData)
//	accepted, err := flow.CompleteStep(ctx, formData)
//
// Registry keeps per-user flows in an LRU cache for the HTTP Handler, and
// OpenStorage connects the draft backend named by Config.
package onboarding

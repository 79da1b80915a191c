// Package telemetry delivers fire-and-forget analytics events.
//
// Tracker is the sink interface. Slog logs events, Prometheus turns
// transition events into counters and histograms, Multi fans out to several
// sinks and Recorder keeps events in memory. Safe guards callers against
// panicking sinks, so tracking can never fail a transition.
//
//	prom, err := telemetry.NewPrometheus(prometheus.DefaultRegisterer)
//	if err != nil {
//		return err
//	}
//	tracker := telemetry.Safe(telemetry.NewMulti(telemetry.NewSlog(log), prom), log)
//	tracker.Track(ctx, telemetry.EventTransition, map[string]any{
//		telemetry.PropEvent:  "BEGIN",
//		telemetry.PropFrom:   "START",
//		telemetry.PropTo:     "ORGANIZATION_SETUP",
//		telemetry.PropResult: "accepted",
//	})
package telemetry

// Package logger builds *slog.Logger instances with functional options and
// provides attribute helpers shared by the onboarding packages.
//
// New picks a text or JSON handler, attaches static attributes and wraps the
// result in LogHandlerDecorator, which copies request-scoped values out of
// context.Context on every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "onboarding"),
//	    logger.WithContextValue("user_id", userKey{}),
//	)
//	log.InfoContext(ctx, "transition accepted",
//	    logger.Event("ORG_COMPLETED"),
//	    logger.Transition("ORGANIZATION_SETUP", "PROFILE_SETUP"),
//	)
//
// Error and the identity helpers return an empty slog.Attr for empty input,
// which slog drops, so callers do not need nil checks.
package logger

// Package logger builds *slog.Logger values for fabric processes and provides
// attribute helpers for the fields the fabric logs: topics, patterns,
// subscription ids, correlation keys, channels and work item ids.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/fabric/core/logger"
//
//	// Colored console output through zerolog, debug level
//	log := logger.New(logger.WithDevelopment("orders"))
//
//	// JSON output, info level
//	log := logger.New(logger.WithProduction("orders"))
//
//	// Custom configuration
//	log := logger.New(
//		logger.WithLevel(slog.LevelWarn),
//		logger.WithJSONFormatter(),
//		logger.WithAttr(slog.String("region", "eu")),
//		logger.WithOutput(os.Stderr),
//	)
//
// # Context Values
//
// Extractors add attributes taken from the context passed to the *Context
// logging methods:
//
//	log := logger.New(
//		logger.WithProduction("orders"),
//		logger.WithContextValue("tenant", tenantKey{}),
//	)
//	log.InfoContext(ctx, "order placed")
//
// # Attribute Helpers
//
// Helpers return the empty attribute for zero input, which slog drops:
//
//	log.Warn("lease expired",
//		logger.Channel(item.Channel),
//		logger.ItemID(item.ID),
//		logger.Attempt(2),
//		logger.Error(err), // nil-safe
//	)
package logger

package fabric

import "errors"

var (
	ErrDebugDisabled     = errors.New("fabric: debug mode is disabled")
	ErrNotRunning        = errors.New("fabric: hub is not running")
	ErrHealthcheckFailed = errors.New("fabric: healthcheck failed")
)

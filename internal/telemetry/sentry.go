package telemetry

import (
	"time"

	sentry "github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// InitSentry enables panic reporting when dsn is set. The returned function
// flushes buffered events and is safe to call when reporting is disabled.
func InitSentry(dsn, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:     dsn,
		Release: release,
	})
	if err != nil {
		return nil, err
	}

	return func() { sentry.Flush(flushTimeout) }, nil
}

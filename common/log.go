package common

import (
	"github.com/getsentry/sentry-go"
	"github.com/inconshreveable/log15"
)

// NewLog returns a module logger. Error records are also sent to sentry
// once sentry.Init has been called with a DSN; otherwise the capture is a no-op.
func NewLog(serverName string) log15.Logger {
	lg := log15.New("module", serverName)

	h := lg.GetHandler()
	sentryHandle := log15.FuncHandler(func(r *log15.Record) error {
		if r.Lvl == log15.LvlError {
			msg := string(log15.JsonFormat().Format(r))
			go func(m string) {
				sentry.CaptureMessage(m)
			}(msg)
		}
		return nil
	})

	lg.SetHandler(log15.MultiHandler(h, sentryHandle))

	return lg
}

// InitSentry enables error forwarding. An empty dsn leaves sentry disabled.
func InitSentry(dsn, env string) error {
	if dsn == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
	})
}

// SetLogLevel filters the root handler, e.g. "debug", "info", "warn".
func SetLogLevel(level string) error {
	lvl, err := log15.LvlFromString(level)
	if err != nil {
		return err
	}
	log15.Root().SetHandler(log15.LvlFilterHandler(lvl, log15.StdoutHandler))
	return nil
}

package logsvc

import (
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/mrhat05/Doubtroom/core"
)

// RollbarLogger reports to Rollbar and mirrors every message to a std logger.
// Debug messages are only mirrored in debug mode and never reported.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	// nothing to report to in DEV|TEST mode
	rollbar.SetEnabled(conf.RollbarToken != "" && !(conf.Debug || conf.TestMode))
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for queued reports to be sent.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

// report sends msg to Rollbar with args: errors, extras (map[string]interface{}) and at most one core.LogPerson.
func (l RollbarLogger) report(level string, msg string, args []interface{}) {
	var person *core.LogPerson
	items := make([]interface{}, 0, len(args)+1)
	items = append(items, msg)
	for _, arg := range args {
		if p, ok := arg.(core.LogPerson); ok {
			if person == nil {
				person = &p
			}
			continue
		}
		items = append(items, arg)
	}

	if person != nil {
		rollbar.SetPerson(person.ID, person.Username, person.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, items...)
}

// print writes `LEVEL msg` then one line per arg. Only the ID of a person is printed.
func (l RollbarLogger) print(level string, msg string, args []interface{}) {
	l.std.Printf("%s %s", strings.ToUpper(level), msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case core.LogPerson:
			l.std.Printf("  user=%s", a.ID)
		case map[string]interface{}:
			keys := make([]string, 0, len(a))
			for k := range a {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				l.std.Printf("  %s=%v", k, a[k])
			}
		default:
			l.std.Printf("  %+v", a)
		}
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.print(rollbar.DEBUG, msg, args)
	}
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.INFO, msg, args)
	l.print(rollbar.INFO, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.WARN, msg, args)
	l.print(rollbar.WARN, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.ERR, msg, args)
	l.print(rollbar.ERR, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	l.print(rollbar.CRIT, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}

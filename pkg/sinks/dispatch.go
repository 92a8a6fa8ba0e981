package sinks

import (
	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/pkg/types"
)

var levelMethods = map[types.Level]func(Sink, Entry) error{
	types.LevelDebug:    Sink.Debug,
	types.LevelInfo:     Sink.Info,
	types.LevelWarning:  Sink.Warning,
	types.LevelError:    Sink.Error,
	types.LevelCritical: Sink.Critical,
}

// Dispatch writes e through the entry point of s matching level.
// Levels outside the five severities are rejected with
// types.ErrUnknownLevel. A panicking sink is reported as ErrSinkPanic.
func Dispatch(s Sink, level types.Level, e Entry) (err error) {
	method, ok := levelMethods[level]
	if !ok {
		return errors.Wrapf(types.ErrUnknownLevel, "dispatch to %s", s.Name())
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrSinkPanic, "dispatch to %s: %v", s.Name(), r)
		}
	}()
	return method(s, e)
}

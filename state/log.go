package state

import (
	cosmoslog "cosmossdk.io/log"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// treeLogger hands the iavl tree the daodb logger. cometbft has no warn
// level, so warnings go out at info tagged level=warn.
type treeLogger struct {
	cmtlog.Logger
}

var _ cosmoslog.Logger = treeLogger{}

func (l treeLogger) Warn(msg string, keyVals ...any) {
	l.Logger.Info(msg, append(keyVals, "level", "warn")...)
}

func (l treeLogger) With(keyVals ...any) cosmoslog.Logger {
	return treeLogger{l.Logger.With(keyVals...)}
}

func (l treeLogger) Impl() any { return l.Logger }

package app

import (
	"os"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// teeToFile duplicates every entry of lg into a JSON-lines file so the admin
// log tail can read it back. The returned func closes the file.
func teeToFile(lg *zap.Logger, cfg LogConfig) (*zap.Logger, func(), error) {
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, nil, errors.Wrap(err, "create log dir")
	}
	f, err := os.OpenFile(cfg.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open log file")
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(f), zapcore.DebugLevel)

	teed := lg.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
	return teed, func() {
		_ = teed.Sync()
		_ = f.Close()
	}, nil
}

package telemetry

import (
	"log/slog"
	"os"
	"strconv"
)

// SlogAPI implements API on top of the default slog logger.
type SlogAPI struct{}

func paramAttrs(id string, params []any) []any {
	attrs := make([]any, 0, len(params)+1)
	if id != "" {
		attrs = append(attrs, slog.String("id", id))
	}
	for i, p := range params {
		if err, ok := p.(error); ok {
			attrs = append(attrs, slog.String("err", err.Error()))
			continue
		}
		attrs = append(attrs, slog.Any("param"+strconv.Itoa(i), p))
	}
	return attrs
}

func (SlogAPI) ReportBroken(id string, params ...any) {
	slog.Error("broken component", paramAttrs(id, params)...)
}

func (SlogAPI) ReportWarning(id string, params ...any) {
	slog.Warn("warning", paramAttrs(id, params)...)
}

func (SlogAPI) ReportDebug(message string, params ...any) {
	slog.Debug(message, paramAttrs("", params)...)
}

func (SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", slog.String("id", id), slog.Int64("n", count))
}

// InitSlog installs a text handler on stderr as the default logger, debug
// reports are dropped unless verbose is set.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

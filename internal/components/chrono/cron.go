package chrono

import (
	"fmt"
	"parkeeractie/internal/components/telemetry"
	"time"

	"github.com/robfig/cron/v3"
)

const report_cron_job = "cron.job"

// CronAPI schedules callbacks, spec is anything robfig/cron accepts,
// including descriptors like "@every 5m".
type CronAPI interface {
	Cron(spec string, callback func()) error
}

// StandardCron runs jobs with robfig/cron. A job that is still running when
// it is due again is skipped for that tick.
type StandardCron struct {
	cron *cron.Cron
}

func NewStandardCron(tel telemetry.API, location *time.Location) StandardCron {
	logger := cronLogger{tel: telemetry.NewScopedAPI("chrono", tel)}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithLocation(location),
		cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		),
	)
	c.Start()
	return StandardCron{cron: c}
}

func (s StandardCron) Cron(spec string, callback func()) error {
	_, err := s.cron.AddFunc(spec, callback)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	return nil
}

// Stop stops scheduling new jobs and waits for running ones to finish.
func (s StandardCron) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger adapts cron.Logger to telemetry.API.
type cronLogger struct {
	tel telemetry.API
}

func pairs(keysAndValues []any) []any {
	out := make([]any, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out = append(out, fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1]))
	}
	return out
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug("cron: "+msg, pairs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	params := append([]any{fmt.Errorf("%s: %w", msg, err)}, pairs(keysAndValues)...)
	l.tel.ReportBroken(report_cron_job, params...)
}

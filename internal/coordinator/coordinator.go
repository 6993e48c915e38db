package coordinator

import (
	"context"
	"fmt"
	"parkeeractie/internal/components/assert"
	"parkeeractie/internal/components/chrono"
	"parkeeractie/internal/components/telemetry"
	"parkeeractie/internal/scrapers/parkeeractie"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const DefaultScanInterval = 300 * time.Second

const (
	report_coordinator_refresh       = "coordinator.refresh"
	report_coordinator_start_session = "coordinator.start-session"
	report_coordinator_start         = "coordinator.start"
)

var (
	tracer = otel.Tracer("parkeeractie/internal/coordinator")
	meter  = otel.Meter("parkeeractie/internal/coordinator")
)

// Source is the part of the portal client the coordinator depends on.
type Source interface {
	LoginAndFetch(ctx context.Context) (parkeeractie.Snapshot, error)
	StartParkingSession(ctx context.Context, licensePlate, endTime string) (parkeeractie.Outcome, error)
}

// Coordinator keeps the latest account data of a single portal account
// around and refreshes it periodically.
type Coordinator struct {
	source Source
	tel    telemetry.API
	clock  chrono.API

	refreshCounter metric.Int64Counter
	failureCounter metric.Int64Counter

	// cycle is held for the whole duration of a portal interaction, the
	// portal session is not safe for concurrent use.
	cycle sync.Mutex

	mutex     sync.RWMutex
	data      Data
	hasData   bool
	lastError error
}

func New(source Source, tel telemetry.API, clock chrono.API) (*Coordinator, error) {
	assert.NotNil("source", source)
	assert.NotNil("tel", tel)
	assert.NotNil("clock", clock)

	refreshCounter, err := meter.Int64Counter(
		"parkeeractie_refresh_total",
		metric.WithDescription("The total amount of times account data has been refreshed."),
	)
	if err != nil {
		return nil, err
	}
	failureCounter, err := meter.Int64Counter(
		"parkeeractie_refresh_failures_total",
		metric.WithDescription("The total amount of refreshes that failed."),
	)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		source:         source,
		tel:            telemetry.NewScopedAPI("coordinator", tel),
		clock:          clock,
		refreshCounter: refreshCounter,
		failureCounter: failureCounter,
	}, nil
}

// Refresh logs in if needed and fetches the account data. On failure the
// previously fetched data is kept and the error is remembered until the next
// successful refresh.
func (c *Coordinator) Refresh(ctx context.Context) (Data, error) {
	c.cycle.Lock()
	defer c.cycle.Unlock()
	return c.refresh(ctx)
}

func (c *Coordinator) refresh(ctx context.Context) (Data, error) {
	ctx, span := tracer.Start(ctx, "coordinator:Refresh")
	defer span.End()

	snapshot, err := c.source.LoginAndFetch(ctx)
	if err != nil {
		err = fmt.Errorf("update failed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to refresh account data")
		c.tel.ReportWarning(report_coordinator_refresh, err)
		c.failureCounter.Add(ctx, 1)

		c.mutex.Lock()
		defer c.mutex.Unlock()
		c.lastError = err
		return c.data, err
	}

	data := Data{
		Saldo:       snapshot.Saldo,
		CurrentTime: snapshot.CurrentTime,
		UpdatedAt:   c.clock.Now(),
	}
	c.refreshCounter.Add(ctx, 1)

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = data
	c.hasData = true
	c.lastError = nil
	return data, nil
}

// StartSession starts a parking session and refreshes the account data right
// after, regardless of whether the session was started.
func (c *Coordinator) StartSession(ctx context.Context, licensePlate, endTime string) (parkeeractie.Outcome, error) {
	c.cycle.Lock()
	defer c.cycle.Unlock()

	ctx, span := tracer.Start(ctx, "coordinator:StartSession")
	defer span.End()

	outcome, err := c.source.StartParkingSession(ctx, licensePlate, endTime)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start parking session")
		c.tel.ReportBroken(report_coordinator_start_session, err)
	} else if !outcome.Success {
		c.tel.ReportWarning(report_coordinator_start_session, outcome.Messages)
	}

	_, refreshErr := c.refresh(ctx)
	if refreshErr != nil {
		c.tel.ReportDebug("refresh after start session failed", refreshErr)
	}
	return outcome, err
}

// Start performs a first refresh and, if it succeeds, schedules a refresh
// every interval. A zero interval means DefaultScanInterval.
func (c *Coordinator) Start(ctx context.Context, cron chrono.CronAPI, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultScanInterval
	}

	_, err := c.Refresh(ctx)
	if err != nil {
		return err
	}

	err = cron.Cron(fmt.Sprintf("@every %s", interval), func() {
		if ctx.Err() != nil {
			return
		}
		c.Refresh(ctx)
	})
	if err != nil {
		c.tel.ReportBroken(report_coordinator_start, err)
		return err
	}
	return nil
}

// Data returns the latest account data, ok is false before the first
// successful refresh.
func (c *Coordinator) Data() (Data, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.data, c.hasData
}

// LastError returns the error of the latest refresh, it is nil if that
// refresh succeeded.
func (c *Coordinator) LastError() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.lastError
}

// Problem returns the problem state of the latest account data, known is
// false before the first successful refresh.
func (c *Coordinator) Problem() (problem bool, reason Reason, known bool) {
	data, ok := c.Data()
	if !ok {
		return false, "", false
	}
	problem, reason = data.Problem()
	return problem, reason, true
}

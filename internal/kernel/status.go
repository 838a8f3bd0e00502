package kernel

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts five-field cron expressions and descriptors such as
// "@every 30s"
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// StartStatusReporter logs a status line on schedule. An empty schedule
// disables reporting. A running reporter is replaced.
func (k *Kernel) StartStatusReporter(schedule string) error {
	if schedule == "" {
		return nil
	}

	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid status schedule: %w", err)
	}

	k.StopStatusReporter()

	c := cron.New(cron.WithParser(scheduleParser))
	c.Schedule(sched, cron.FuncJob(k.reportStatus))
	c.Start()

	k.reporterMu.Lock()
	k.reporter = c
	k.reporterMu.Unlock()

	k.logger.Debug().Str("schedule", schedule).Msg("Status reporter started")
	return nil
}

// StopStatusReporter stops the reporter and waits for a running report
func (k *Kernel) StopStatusReporter() {
	k.reporterMu.Lock()
	c := k.reporter
	k.reporter = nil
	k.reporterMu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

func (k *Kernel) reportStatus() {
	status := k.Status()
	k.logger.Info().
		Str("distribution", status.Distribution).
		Int("agents", len(status.Agents)).
		Int64("commands_processed", status.CommandsProcessed).
		Int("ops_per_sec", status.OpsPerSec).
		Float64("uptime", status.Uptime).
		Msg("Kernel status")
}

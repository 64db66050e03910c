package worker

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule builds the run schedule. A cron expression (standard five fields, optional seconds,
// or descriptors such as @hourly) takes precedence over interval.
func ParseSchedule(expr string, interval time.Duration) (cron.Schedule, error) {
	if expr != "" {
		schedule, err := scheduleParser.Parse(expr)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid cron expression", goerr.V("schedule", expr))
		}
		return schedule, nil
	}

	if interval < time.Second {
		return nil, goerr.New("sync interval must be at least one second", goerr.V("interval", interval))
	}
	return cron.Every(interval), nil
}

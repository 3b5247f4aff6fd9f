// Package scheduler runs business steps on cron schedules.
//
// Jobs are registered by name with a schedule in standard five-field cron
// syntax, the optional-seconds six-field form, or a descriptor such as
// "@hourly" or "@every 5m". Each run gets the scheduler context, bounded by
// the job timeout when one is set. Panics are recovered and reported as job
// errors; failures never stop the scheduler.
//
// Usage:
//
//	s := scheduler.New(scheduler.Config{Logger: log})
//	_, err := s.Add("@every 5m", scheduler.LowStockJob(svc, 5, log), scheduler.JobOptions{
//		Name:    "low-stock",
//		Timeout: 30 * time.Second,
//		Overlap: scheduler.SkipIfRunning,
//	})
//	s.Start()
//	defer s.Stop(context.Background())
package scheduler

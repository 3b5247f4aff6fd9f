package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc - тело задачи.
type JobFunc func(ctx context.Context) error

// OverlapPolicy определяет, что делать, если предыдущий запуск ещё идёт.
type OverlapPolicy int

const (
	// AllowOverlap разрешает параллельные запуски.
	AllowOverlap OverlapPolicy = iota
	// SkipIfRunning пропускает запуск.
	SkipIfRunning
	// DelayIfRunning ждёт окончания предыдущего запуска.
	DelayIfRunning
)

func (p OverlapPolicy) String() string {
	switch p {
	case AllowOverlap:
		return "allow"
	case SkipIfRunning:
		return "skip"
	case DelayIfRunning:
		return "delay"
	default:
		return "unknown"
	}
}

// JobOptions настраивает задачу.
type JobOptions struct {
	// Name обязателен и уникален в пределах планировщика.
	Name    string
	Timeout time.Duration
	Overlap OverlapPolicy
}

// Hooks - необязательные колбэки наблюдаемости.
type Hooks struct {
	OnStart  func(name string)
	OnFinish func(name string, took time.Duration, err error)
}

// Config настраивает планировщик.
type Config struct {
	Logger   *slog.Logger
	Hooks    Hooks
	Location *time.Location
}

// ErrDuplicateJob возвращается при повторной регистрации имени.
var ErrDuplicateJob = errors.New("scheduler: duplicate job name")

// ErrUnknownJob возвращается, если задачи с таким именем нет.
var ErrUnknownJob = errors.New("scheduler: unknown job")

// parser принимает пять полей, шесть полей с секундами и дескрипторы.
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule проверяет расписание без регистрации задачи.
func ParseSchedule(schedule string) (cron.Schedule, error) {
	return parser.Parse(schedule)
}

type job struct {
	id      cron.EntryID
	fn      JobFunc
	opts    JobOptions
	running sync.Mutex
}

// Entry описывает зарегистрированную задачу.
type Entry struct {
	Name string
	Next time.Time
	Prev time.Time
}

// Scheduler управляет периодическими задачами.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	hooks  Hooks

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*job

	startOnce sync.Once
	stopOnce  sync.Once
	stopped   chan struct{}
}

// New создаёт планировщик. Он не запускает задачи до Start.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{logger: logger.With("component", "cron")}),
		),
		logger:  logger,
		hooks:   cfg.Hooks,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*job),
		stopped: make(chan struct{}),
	}
}

// Add регистрирует задачу по расписанию.
func (s *Scheduler) Add(schedule string, fn JobFunc, opts JobOptions) (cron.EntryID, error) {
	if opts.Name == "" {
		return 0, errors.New("scheduler: job name required")
	}
	if fn == nil {
		return 0, fmt.Errorf("scheduler: job %q has no func", opts.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[opts.Name]; ok {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateJob, opts.Name)
	}

	j := &job{fn: fn, opts: opts}
	id, err := s.cron.AddFunc(schedule, func() { s.run(s.ctx, j) })
	if err != nil {
		return 0, fmt.Errorf("scheduler: job %q: %w", opts.Name, err)
	}
	j.id = id
	s.jobs[opts.Name] = j

	s.logger.Info("job added", "name", opts.Name, "schedule", schedule, "overlap", opts.Overlap.String())
	return id, nil
}

// Remove снимает задачу с расписания.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok {
		return false
	}
	s.cron.Remove(j.id)
	delete(s.jobs, name)
	s.logger.Info("job removed", "name", name)
	return true
}

// RunNow выполняет задачу немедленно и синхронно, соблюдая её опции.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, j)
}

// Entries возвращает задачи с ближайшим и предыдущим временем запуска.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.jobs))
	for name, j := range s.jobs {
		e := s.cron.Entry(j.id)
		out = append(out, Entry{Name: name, Next: e.Next, Prev: e.Prev})
	}
	return out
}

// Start запускает планировщик. Повторный вызов ничего не делает.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("scheduler started")
		s.cron.Start()
	})
}

// Stop останавливает планировщик и ждёт текущие запуски, но не дольше ctx.
// Контекст задач отменяется сразу.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.cancel()
		go func() {
			<-s.cron.Stop().Done()
			close(s.stopped)
		}()
	})
	select {
	case <-s.stopped:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop deadline exceeded")
		return ctx.Err()
	}
}

func (s *Scheduler) run(parent context.Context, j *job) (err error) {
	name := j.opts.Name

	switch j.opts.Overlap {
	case SkipIfRunning:
		if !j.running.TryLock() {
			s.logger.Debug("job skipped, still running", "name", name)
			return nil
		}
		defer j.running.Unlock()
	case DelayIfRunning:
		j.running.Lock()
		defer j.running.Unlock()
	}

	ctx := parent
	if j.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, j.opts.Timeout)
		defer cancel()
	}

	if s.hooks.OnStart != nil {
		s.hooks.OnStart(name)
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		took := time.Since(start)
		if err != nil {
			s.logger.Error("job failed", "name", name, "error", err, "took", took)
		} else {
			s.logger.Debug("job done", "name", name, "took", took)
		}
		if s.hooks.OnFinish != nil {
			s.hooks.OnFinish(name, took, err)
		}
	}()

	return j.fn(ctx)
}

// cronLogger направляет журнал cron в slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, kv ...any) {
	l.logger.Debug(msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.logger.Error(msg, append([]any{"error", err}, kv...)...)
}

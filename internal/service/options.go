package service

import (
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/repository"
)

const defaultMaxConcurrency = 8

// Option configures the services built by this package.
type Option func(*options)

type options struct {
	observer       UseCaseObserver
	notifier       Notifier
	recorder       Recorder
	confirmer      Confirmer
	tx             repository.Transactor
	today          func() time.Time
	maxConcurrency int
}

func WithObserver(o UseCaseObserver) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(opts *options) {
		if n != nil {
			opts.notifier = n
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(opts *options) {
		if r != nil {
			opts.recorder = r
		}
	}
}

// WithConfirmer sets who approves link deletion. Without one every deletion
// is refused.
func WithConfirmer(c Confirmer) Option {
	return func(opts *options) {
		if c != nil {
			opts.confirmer = c
		}
	}
}

// WithTransactor lets multi-row writes run in one transaction.
func WithTransactor(tx repository.Transactor) Option {
	return func(opts *options) {
		opts.tx = tx
	}
}

// WithToday overrides the clock used to roll reminders forward.
func WithToday(f func() time.Time) Option {
	return func(opts *options) {
		if f != nil {
			opts.today = f
		}
	}
}

// WithMaxConcurrency bounds the parallel writes of a cascade batch.
func WithMaxConcurrency(n int) Option {
	return func(opts *options) {
		if n > 0 {
			opts.maxConcurrency = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		observer:       NoopUseCaseObserver{},
		notifier:       NoopNotifier{},
		recorder:       NoopRecorder{},
		confirmer:      NeverConfirm,
		today:          calendar.Today,
		maxConcurrency: defaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

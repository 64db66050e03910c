package usecase

import (
	"io"
	"time"

	"github.com/secmon-lab/aligner/pkg/domain/interfaces"
	"github.com/secmon-lab/aligner/pkg/service/archive"
	"github.com/secmon-lab/aligner/pkg/service/google"
	slacksvc "github.com/secmon-lab/aligner/pkg/service/slack"
)

type UseCases struct {
	repo    interfaces.Repository
	archive archive.Service
	console io.Writer
	clock   func() time.Time

	Reconcile *ReconcileUseCase
	Report    *ReportUseCase
	Sync      *SyncUseCase
}

type Option func(*UseCases)

// WithRepository enables run history
func WithRepository(repo interfaces.Repository) Option {
	return func(uc *UseCases) {
		uc.repo = repo
	}
}

// WithArchive enables uploading run records
func WithArchive(svc archive.Service) Option {
	return func(uc *UseCases) {
		uc.archive = svc
	}
}

// WithConsole prints a summary of every run to w
func WithConsole(w io.Writer) Option {
	return func(uc *UseCases) {
		uc.console = w
	}
}

func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func New(directory google.Service, channel slacksvc.Service, opts ...Option) *UseCases {
	uc := &UseCases{
		clock: time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Reconcile = NewReconcileUseCase(directory, channel)
	uc.Report = NewReportUseCase(channel)
	uc.Sync = &SyncUseCase{
		channel:   channel,
		reconcile: uc.Reconcile,
		report:    uc.Report,
		repo:      uc.repo,
		archive:   uc.archive,
		console:   uc.console,
		now:       uc.clock,
	}

	return uc
}

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"trade-ledger-backend/config"
	"trade-ledger-backend/internal/journal"
	"trade-ledger-backend/internal/notification"
	"trade-ledger-backend/internal/parse"
	"trade-ledger-backend/internal/store"
)

// ErrLogDirectory is returned when the configured journal directory is missing
// or is not a directory.
var ErrLogDirectory = errors.New("journal log directory unavailable")

// Notifier receives notices for committed ledger transitions.
type Notifier interface {
	Dispatch(notice notification.Notice)
}

// Service orchestrates journal ingestion runs. Runs never overlap.
type Service struct {
	cfg        *config.Config
	store      store.Store
	dispatcher *Dispatcher
	notifier   Notifier
	now        func() time.Time

	mu sync.Mutex
}

// NewService creates an ingestion service. notifier may be nil.
func NewService(cfg *config.Config, st store.Store, notifier Notifier) *Service {
	cargoPath := filepath.Join(cfg.LogDirectory, cfg.Journal.CargoFile)
	return &Service{
		cfg:   cfg,
		store: st,
		dispatcher: NewDispatcher(cfg.ColonizedSet(), func() journal.CargoReport {
			return journal.ReadCargo(cargoPath)
		}),
		notifier: notifier,
		now:      time.Now,
	}
}

// Run scans the log directory on the configured interval until ctx is done.
// The first scan starts immediately.
func (s *Service) Run(ctx context.Context) error {
	if !s.cfg.Journal.ScanEnabled {
		log.Info().Msg("periodic journal scan is disabled")
		<-ctx.Done()
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "failed to create scan scheduler")
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cfg.Journal.ScanInterval),
		gocron.NewTask(func() {
			if _, err := s.ScanOnce(ctx); err != nil {
				log.Error().Err(err).Msg("journal scan failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return errors.Wrap(err, "failed to schedule journal scan")
	}

	log.Info().Dur("interval", s.cfg.Journal.ScanInterval).Str("dir", s.cfg.LogDirectory).Msg("starting journal scanner")
	scheduler.Start()

	<-ctx.Done()
	log.Info().Msg("journal scanner shutting down")
	return scheduler.Shutdown()
}

// ScanOnce processes every unprocessed journal file in the log directory,
// oldest session first.
func (s *Service) ScanOnce(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := s.discover()
	if err != nil {
		return nil, err
	}
	return s.process(ctx, paths), nil
}

// ProcessFiles processes the given journal files in the given order.
func (s *Service) ProcessFiles(ctx context.Context, paths []string) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.process(ctx, paths), nil
}

// discover lists journal files in the log directory in session order.
func (s *Service) discover() ([]string, error) {
	dir := s.cfg.LogDirectory
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrLogDirectory, "%s: %v", dir, err)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrLogDirectory, "%s is not a directory", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, s.cfg.Journal.FilePattern))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid journal file pattern %q", s.cfg.Journal.FilePattern)
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return parse.JournalLess(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})
	return paths, nil
}

func (s *Service) process(ctx context.Context, paths []string) *Summary {
	sum := &Summary{RunID: uuid.NewString(), StartedAt: s.now().UTC()}
	logger := log.With().Str("run_id", sum.RunID).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Int("files", len(paths)).Msg("starting ingestion run")

	var state RunState
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Msg("ingestion run cancelled; remaining files left for the next run")
			break
		}
		sum.FilesSeen++
		state = s.processFile(ctx, path, state, sum)
	}

	sum.FinishedAt = s.now().UTC()
	logger.Info().
		Int("processed", sum.FilesProcessed).
		Int("skipped", sum.FilesSkipped).
		Int("failed", sum.FilesFailed).
		Int("inserted", sum.Inserted).
		Int("sold", sum.Sold).
		Int("delivered", sum.Delivered).
		Int("bulk_delivered", sum.BulkDelivered).
		Msg("ingestion run finished")
	return sum
}

// processFile applies one file in its own transaction and returns the run
// state to carry into the next file. If the file is not committed the state
// from before it is returned.
func (s *Service) processFile(ctx context.Context, path string, before RunState, sum *Summary) RunState {
	name := filepath.Base(path)
	logger := zerolog.Ctx(ctx).With().Str("file", name).Logger()
	ctx = logger.WithContext(ctx)

	done, err := s.store.HasProcessed(ctx, name)
	if err != nil {
		logger.Error().Err(err).Msg("failed to check ingestion record")
		sum.FilesFailed++
		return before
	}
	if done {
		logger.Debug().Msg("already processed; skipping")
		sum.FilesSkipped++
		return before
	}

	events, err := journal.ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read journal file; leaving it for the next run")
		sum.FilesFailed++
		return before
	}

	var (
		after RunState
		tally Tally
	)
	err = s.store.ApplyFile(ctx, name, s.now().UTC(), func(l store.Ledger) error {
		after, tally = s.dispatcher.Apply(ctx, before, l, events)
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to commit journal file")
		sum.FilesFailed++
		return before
	}

	sum.FilesProcessed++
	sum.add(tally)
	if s.notifier != nil {
		for _, n := range tally.Notices {
			s.notifier.Dispatch(n)
		}
	}
	return after
}

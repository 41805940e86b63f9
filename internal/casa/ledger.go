package casa

import (
	"context"
	"fmt"

	"github.com/hay-kot/casa/internal/core/config"
	"github.com/hay-kot/casa/internal/core/recent"
	"github.com/hay-kot/casa/internal/store/memory"
	"github.com/hay-kot/casa/internal/store/sqlite"
)

// searches opens the recent-search ledger on first use.
func (s *Service) searches(ctx context.Context) (*recent.Ledger, error) {
	if s.ledger != nil {
		return s.ledger, nil
	}

	cfg := s.config.Recent
	log := s.log.With().Str("component", "recent").Str("backend", cfg.Backend).Logger()

	primary, err := s.persister(cfg.Backend)
	if err != nil {
		return nil, err
	}

	if cfg.Async {
		s.async = recent.NewAsyncPersister(primary, log)
		primary = s.async
	}

	l := recent.Open(ctx, primary, log, recent.Options{
		Capacity: cfg.Capacity,
		FoldCase: cfg.FoldCase,
	})

	if cfg.SeedFrom != "" && l.Len() == 0 {
		if err := s.seed(ctx, l, cfg.SeedFrom); err != nil {
			log.Warn().Err(err).Str("seed", cfg.SeedFrom).Msg("seed recent searches")
		}
	}

	s.ledger = l
	return l, nil
}

// seed hydrates l from a second backend. The seeded list is written to the
// primary backend on the next recorded search.
func (s *Service) seed(ctx context.Context, l *recent.Ledger, backend string) error {
	p, err := s.persister(backend)
	if err != nil {
		return err
	}

	entries, err := p.Load(ctx)
	if err != nil {
		return fmt.Errorf("load from %s: %w", backend, err)
	}

	if len(entries) > 0 {
		l.Hydrate(entries)
		s.log.Info().Str("seed", backend).Int("entries", len(entries)).Msg("hydrated recent searches")
	}
	return nil
}

func (s *Service) persister(backend string) (recent.Persister, error) {
	switch backend {
	case config.BackendPrefs:
		return recent.NewPrefsPersister(s.prefs, s.config.Recent.Key), nil
	case config.BackendSQLite:
		db, err := s.database()
		if err != nil {
			return nil, err
		}
		return sqlite.NewRecentStore(db, s.config.Recent.Key), nil
	case config.BackendMemory:
		if s.memory == nil {
			s.memory = memory.New()
		}
		return s.memory, nil
	default:
		return nil, fmt.Errorf("unknown recent backend %q", backend)
	}
}

func (s *Service) database() (*sqlite.DB, error) {
	if s.db != nil {
		return s.db, nil
	}

	db, err := sqlite.Open(sqlite.Config{Path: s.config.DatabaseFile()})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s.db = db
	return db, nil
}

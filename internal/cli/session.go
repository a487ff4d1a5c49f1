package cli

import (
	"context"
	"log/slog"

	"github.com/roach88/fundledger/internal/metrics"
	"github.com/roach88/fundledger/internal/processor"
	"github.com/roach88/fundledger/internal/runtime"
	"github.com/roach88/fundledger/internal/store"
	"github.com/roach88/fundledger/internal/token"
)

// session is an open host and the store and metrics behind it.
type session struct {
	host    *runtime.Host
	store   *store.Store
	metrics *metrics.Metrics
}

// openSession validates the configuration and opens the host on the
// configured database, creating it if it doesn't exist.
func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	procID, err := cfg.Program.Processor()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	serviceID, err := cfg.Program.TokenService()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	allow, err := cfg.Treasury.AllowList()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load treasury allow-list", err)
	}

	slog.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	tok := token.New(serviceID)
	proc, err := processor.New(processor.Config{
		ID:           procID,
		TokenService: serviceID,
		Transfers:    tok,
		Treasury:     allow,
	})
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "invalid processor configuration", err)
	}

	m := metrics.New()
	hostOpts := []runtime.Option{runtime.WithMetrics(m), runtime.WithLogger(slog.Default())}
	if opts.IDGenerator != nil {
		hostOpts = append(hostOpts, runtime.WithIDGenerator(opts.IDGenerator))
	}
	host, err := runtime.New(ctx, st, proc, tok, hostOpts...)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to start host", err)
	}

	return &session{host: host, store: st, metrics: m}, nil
}

// Close releases the database.
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

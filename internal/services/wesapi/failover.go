package wesapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wesline/internal/config"
	"wesline/internal/logging"
	"wesline/internal/services"
)

// Failover sends every call to the primary upstream and replays it against
// the secondary when the primary cannot answer.
type Failover struct {
	primary   API
	secondary API
	logger    *slog.Logger
}

// NewFailover pairs two upstreams. A nil secondary returns the primary alone.
func NewFailover(primary, secondary API, logger *slog.Logger) API {
	if secondary == nil {
		return primary
	}
	if primary == nil {
		return secondary
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Failover{primary: primary, secondary: secondary, logger: logger}
}

// Name lists both upstreams in order.
func (f *Failover) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

// GenerateLine implements API.
func (f *Failover) GenerateLine(ctx context.Context, req LineRequest) (*LineResponse, error) {
	return run(ctx, f, "generate line", func(api API) (*LineResponse, error) {
		return api.GenerateLine(ctx, req)
	})
}

// ValidateCounterpoint implements API.
func (f *Failover) ValidateCounterpoint(ctx context.Context, req CounterpointRequest) (*CounterpointResult, error) {
	return run(ctx, f, "validate counterpoint", func(api API) (*CounterpointResult, error) {
		return api.ValidateCounterpoint(ctx, req)
	})
}

// Patterns implements API.
func (f *Failover) Patterns(ctx context.Context) ([]Pattern, error) {
	return run(ctx, f, "list patterns", func(api API) ([]Pattern, error) {
		return api.Patterns(ctx)
	})
}

// Health succeeds when either upstream is healthy.
func (f *Failover) Health(ctx context.Context) error {
	_, err := run(ctx, f, "health", func(api API) (struct{}, error) {
		return struct{}{}, api.Health(ctx)
	})
	return err
}

func run[T any](ctx context.Context, f *Failover, op string, call func(API) (T, error)) (T, error) {
	out, err := call(f.primary)
	if err == nil || !ShouldFailover(ctx, err) {
		return out, err
	}
	f.logger.Warn("primary upstream failed; trying secondary",
		logging.String(logging.FieldUpstream, f.primary.Name()),
		logging.String("operation", op),
		logging.Error(err),
	)
	out, secondErr := call(f.secondary)
	if secondErr != nil {
		var zero T
		return zero, fmt.Errorf("%s failed on both upstreams: %w", op, errors.Join(err, secondErr))
	}
	return out, nil
}

// ShouldFailover reports whether an error from one upstream justifies trying
// the other: transport failures, timeouts, and 5xx answers do; client errors
// and a canceled caller do not.
func ShouldFailover(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Server()
	}
	if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrNotFound) {
		return false
	}
	return true
}

// ClientsFromConfig builds the upstream clients for the configured mode in
// the order they should be tried.
func ClientsFromConfig(cfg *config.Config, opts ...Option) []*Client {
	if cfg == nil {
		return nil
	}
	build := func(name, base string) *Client {
		return NewClient(Config{
			Name:           name,
			BaseURL:        base,
			UserAgent:      cfg.Upstream.UserAgent,
			TimeoutSeconds: cfg.Upstream.TimeoutSeconds,
		}, opts...)
	}
	var clients []*Client
	switch cfg.Upstream.Mode {
	case config.ModeAPI:
		clients = append(clients, build(UpstreamAPI, cfg.Upstream.WesAPIURL))
	case config.ModeWorker:
		clients = append(clients, build(UpstreamWorker, cfg.Upstream.WorkerURL))
	default:
		if cfg.Upstream.WesAPIURL != "" {
			clients = append(clients, build(UpstreamAPI, cfg.Upstream.WesAPIURL))
		}
		if cfg.Upstream.WorkerURL != "" {
			clients = append(clients, build(UpstreamWorker, cfg.Upstream.WorkerURL))
		}
	}
	return clients
}

// NewFromConfig returns the API the service should call for the configured
// mode.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (API, error) {
	clients := ClientsFromConfig(cfg, opts...)
	switch len(clients) {
	case 0:
		return nil, services.Wrap(services.ErrConfiguration, component, "configure", "no upstream url configured", nil)
	case 1:
		return clients[0], nil
	default:
		return NewFailover(clients[0], clients[1], logger), nil
	}
}

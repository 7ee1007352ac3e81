package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

// ErrUnknownDatasource is returned by a Source that does not serve the
// requested datasource.
var ErrUnknownDatasource = errors.New("lookup: unknown datasource")

// Source fetches the options of a named datasource.
type Source interface {
	Options(ctx context.Context, datasource string) ([]template.Option, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context, datasource string) ([]template.Option, error)

// Options delegates to the underlying function.
func (fn SourceFunc) Options(ctx context.Context, datasource string) ([]template.Option, error) {
	return fn(ctx, datasource)
}

// StaticSource serves options from memory.
type StaticSource map[string][]template.Option

// Options implements Source.
func (s StaticSource) Options(_ context.Context, datasource string) ([]template.Option, error) {
	opts, ok := s[datasource]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatasource, datasource)
	}
	return append([]template.Option(nil), opts...), nil
}

// Chain asks each source in turn and returns the first answer that is not
// ErrUnknownDatasource.
func Chain(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context, datasource string) ([]template.Option, error) {
		for _, src := range sources {
			if src == nil {
				continue
			}
			opts, err := src.Options(ctx, datasource)
			if errors.Is(err, ErrUnknownDatasource) {
				continue
			}
			return opts, err
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatasource, datasource)
	})
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithLogger routes resolver diagnostics to logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver memoises datasource options by name. A name is fetched once; a
// failed fetch is not remembered. Resolver is safe for concurrent use.
type Resolver struct {
	source Source
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string][]template.Option
}

// NewResolver wraps source.
func NewResolver(source Source, options ...ResolverOption) *Resolver {
	r := &Resolver{
		source: source,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cache:  make(map[string][]template.Option),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Resolve returns the options of datasource, fetching them on first use.
func (r *Resolver) Resolve(ctx context.Context, datasource string) ([]template.Option, error) {
	name := strings.TrimSpace(datasource)
	if name == "" {
		return nil, errors.New("lookup: empty datasource name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if opts, ok := r.cache[name]; ok {
		return append([]template.Option(nil), opts...), nil
	}
	if r.source == nil {
		return nil, fmt.Errorf("lookup: no source for datasource %q", name)
	}
	opts, err := r.source.Options(ctx, name)
	if err != nil {
		r.logger.Warn("datasource fetch failed", "datasource", name, "error", err)
		return nil, fmt.Errorf("lookup: resolve %q: %w", name, err)
	}
	r.logger.Debug("datasource fetched", "datasource", name, "options", len(opts))
	r.cache[name] = append([]template.Option(nil), opts...)
	return opts, nil
}

// Forget drops the memoised options of datasource.
func (r *Resolver) Forget(datasource string) {
	r.mu.Lock()
	delete(r.cache, strings.TrimSpace(datasource))
	r.mu.Unlock()
}

// Populate fills Options on every select field of tpl that names a
// datasource. Fields whose datasource fails keep their current options; the
// failures are returned joined.
func (r *Resolver) Populate(ctx context.Context, tpl *template.Template) error {
	var errs []error
	tpl.Walk(func(_ string, sec *template.Section) bool {
		for i := range sec.Fields {
			f := &sec.Fields[i]
			if f.Type != template.FieldTypeSelect || strings.TrimSpace(f.Datasource) == "" {
				continue
			}
			opts, err := r.Resolve(ctx, f.Datasource)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %q: %w", f.ID, err))
				continue
			}
			f.Options = opts
		}
		return true
	})
	return errors.Join(errs...)
}

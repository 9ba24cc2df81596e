package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/anttttti/DuneBlend/pkg/blend"
)

// DefaultProtected lists the bundled blends that cannot be deleted.
var DefaultProtected = []string{"Base_Imperium.md", "Base_Uprising.md"}

// Service handles the business logic for blends.
type Service struct {
	store     Store
	delivery  Delivery
	fetcher   Fetcher
	logger    *slog.Logger
	protected map[string]bool
	readOnly  bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDelivery sets the client-side fallback used when the store cannot save.
func WithDelivery(d Delivery) ServiceOption {
	return func(s *Service) { s.delivery = d }
}

// WithFetcher sets the asset fetcher.
func WithFetcher(f Fetcher) ServiceOption {
	return func(s *Service) { s.fetcher = f }
}

// WithServiceLogger sets the logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProtected replaces the list of blends that cannot be deleted.
func WithProtected(filenames ...string) ServiceOption {
	return func(s *Service) {
		s.protected = make(map[string]bool, len(filenames))
		for _, f := range filenames {
			s.protected[f] = true
		}
	}
}

// WithReadOnly disables writes through the store.
func WithReadOnly(readOnly bool) ServiceOption {
	return func(s *Service) { s.readOnly = readOnly }
}

// NewService creates a new Service. store may be nil for static hosting,
// in which case every save goes to the delivery fallback.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	WithProtected(DefaultProtected...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Features reports what the current store supports.
func (s *Service) Features(ctx context.Context) Features {
	if s.store == nil {
		return StaticFeatures
	}
	f := Features{CanSaveToServer: true, CanLoadFromServer: true, ServerType: ServerLocal}
	if d, ok := s.store.(FeatureDetector); ok {
		f = d.DetectFeatures(ctx)
	}
	if s.readOnly {
		f.CanSaveToServer = false
	}
	return f
}

// LoadBlend reads and parses a stored blend.
func (s *Service) LoadBlend(ctx context.Context, filename string) (*blend.Document, error) {
	data, err := s.ReadBlend(ctx, filename)
	if err != nil {
		return nil, err
	}
	return blend.Parse(string(data)), nil
}

// ReadBlend returns the raw text of a stored blend.
func (s *Service) ReadBlend(ctx context.Context, filename string) ([]byte, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrUnavailable
	}
	return s.store.Get(ctx, filename)
}

// SaveBlend serializes doc under name and persists it.
//
// When the store is missing, read-only or fails, the text is handed to the
// delivery fallback instead and the result reports LocationDownload.
func (s *Service) SaveBlend(ctx context.Context, name string, doc *blend.Document) (SaveResult, error) {
	if name == "" {
		name = UntitledBlend
	}
	content := []byte(blend.Serialize(name, doc))
	filename := FilenameFor(name)

	var cause error
	if s.Features(ctx).CanSaveToServer {
		err := s.store.Save(ctx, filename, content)
		if err == nil {
			s.logger.Info("blend saved", "filename", filename, "location", LocationServer)
			return SaveResult{Filename: filename, Location: LocationServer}, nil
		}
		s.logger.Warn("server save failed, falling back to download", "filename", filename, "error", err)
		cause = err
	} else {
		cause = ErrUnavailable
	}

	if s.delivery == nil {
		if errors.Is(cause, ErrUnavailable) {
			return SaveResult{}, cause
		}
		return SaveResult{}, fmt.Errorf("%w: %w", ErrUnavailable, cause)
	}

	path, err := s.delivery.Deliver(ctx, filename, content)
	if err != nil {
		return SaveResult{}, fmt.Errorf("failed to deliver %s: %w", filename, err)
	}
	s.logger.Info("blend delivered", "filename", filename, "path", path)
	return SaveResult{Filename: filename, Location: LocationDownload, Path: path}, nil
}

// Upload stores raw blend text under a cleaned file name.
func (s *Service) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	name, err := CleanUploadName(filename)
	if err != nil {
		return "", err
	}
	if err := s.writable(); err != nil {
		return "", err
	}
	if err := s.store.Save(ctx, name, content); err != nil {
		return "", err
	}
	return name, nil
}

// ListBlends returns the stored blends sorted by filename.
func (s *Service) ListBlends(ctx context.Context) ([]BlendInfo, error) {
	if s.store == nil {
		return []BlendInfo{}, nil
	}
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Filename < list[j].Filename })
	return list, nil
}

// DeleteBlend removes a stored blend. Protected blends are refused.
func (s *Service) DeleteBlend(ctx context.Context, filename string) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}
	if s.protected[filename] {
		return fmt.Errorf("%w: %s", ErrProtected, filename)
	}
	if err := s.writable(); err != nil {
		return err
	}
	return s.store.Delete(ctx, filename)
}

// IsProtected reports whether filename cannot be deleted.
func (s *Service) IsProtected(filename string) bool {
	return s.protected[filename]
}

// Fetch retrieves a static asset through the configured fetcher.
func (s *Service) Fetch(ctx context.Context, name string) ([]byte, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("%w: no asset fetcher configured", ErrNotFound)
	}
	return s.fetcher.Fetch(ctx, name)
}

// Watch observes changes in the store if supported.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.store.(Watchable)
	if !ok {
		return nil, errors.New("store does not support watching")
	}
	return w.Watch(ctx)
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

func (s *Service) writable() error {
	if s.readOnly {
		return ErrReadOnly
	}
	if s.store == nil {
		return ErrUnavailable
	}
	return nil
}

package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// DefaultResultRetention is how long a finished upload stays queryable.
const DefaultResultRetention = 5 * time.Minute

// DefaultUploadTimeout bounds a single background batch.
const DefaultUploadTimeout = 10 * time.Minute

// Options configures a Service. Zero values select defaults.
type Options struct {
	FieldMap    *catalog.FieldMap
	MatchKey    catalog.MatchKey
	LabelPolicy catalog.LabelPolicy

	MaxFileSize     int64
	MaxConcurrent   int
	MaxWait         time.Duration
	UploadTimeout   time.Duration
	ResultRetention time.Duration

	Logger *slog.Logger
}

// Service runs uploads against one catalog store.
type Service struct {
	store    catalog.ReadStore
	catalog  *catalog.Catalog
	fieldMap *catalog.FieldMap
	matchKey catalog.MatchKey
	limiter  *UploadLimiter
	logger   *slog.Logger

	maxFileSize   int64
	uploadTimeout time.Duration
	retention     time.Duration

	mu      sync.RWMutex
	uploads map[string]*activeUpload
}

// NewService creates a Service over store.
func NewService(store catalog.ReadStore, opts Options) *Service {
	fm := opts.FieldMap
	if fm == nil {
		fm = catalog.DefaultFieldMap()
	}
	key := opts.MatchKey
	if len(key) == 0 {
		key = catalog.DefaultMatchKey()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.UploadTimeout
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	retention := opts.ResultRetention
	if retention <= 0 {
		retention = DefaultResultRetention
	}

	return &Service{
		store:         store,
		catalog:       &catalog.Catalog{Store: store, Policy: opts.LabelPolicy},
		fieldMap:      fm,
		matchKey:      key,
		limiter:       NewUploadLimiter(opts.MaxConcurrent, opts.MaxWait),
		logger:        logger,
		maxFileSize:   opts.MaxFileSize,
		uploadTimeout: timeout,
		retention:     retention,
		uploads:       make(map[string]*activeUpload),
	}
}

// Catalog returns the read-side service over the same store.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// FieldMap returns the header map used for every batch.
func (s *Service) FieldMap() *catalog.FieldMap { return s.fieldMap }

// MatchKey returns the match key used for every batch.
func (s *Service) MatchKey() catalog.MatchKey { return s.matchKey }

// LimiterStatus reports batch slot usage.
func (s *Service) LimiterStatus() UploadLimiterStatus { return s.limiter.Status() }

// WaitForUploads blocks until no batch is running or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

type activeUpload struct {
	ID       string
	FileName string
	Cancel   context.CancelFunc
	Done     chan struct{}

	mu        sync.Mutex
	progress  UploadProgress
	result    *UploadResult
	listeners []chan UploadProgress
}

func (s *Service) lookup(uploadID string) (*activeUpload, error) {
	s.mu.RLock()
	upload, ok := s.uploads[uploadID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
	}
	return upload, nil
}

// SubscribeProgress returns a channel that receives progress updates.
// The current progress is sent immediately. The channel is closed when the
// upload ends; subscribing to a finished upload yields its final progress
// and a closed channel.
func (s *Service) SubscribeProgress(uploadID string) (<-chan UploadProgress, error) {
	upload, err := s.lookup(uploadID)
	if err != nil {
		return nil, err
	}

	ch := make(chan UploadProgress, 10)

	upload.mu.Lock()
	defer upload.mu.Unlock()
	ch <- upload.progress
	if upload.result != nil {
		close(ch)
		return ch, nil
	}
	upload.listeners = append(upload.listeners, ch)
	return ch, nil
}

// CancelUpload cancels an in-progress upload. Rows already applied stay.
func (s *Service) CancelUpload(uploadID string) error {
	upload, err := s.lookup(uploadID)
	if err != nil {
		return err
	}
	upload.Cancel()
	return nil
}

// GetUploadResult returns the result of an upload, blocking until it ends
// or ctx is done.
func (s *Service) GetUploadResult(ctx context.Context, uploadID string) (*UploadResult, error) {
	upload, err := s.lookup(uploadID)
	if err != nil {
		return nil, err
	}

	select {
	case <-upload.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	upload.mu.Lock()
	defer upload.mu.Unlock()
	return upload.result, nil
}

// GetUploadProgress returns the current progress without blocking.
func (s *Service) GetUploadProgress(uploadID string) (UploadProgress, error) {
	upload, err := s.lookup(uploadID)
	if err != nil {
		return UploadProgress{}, err
	}
	upload.mu.Lock()
	defer upload.mu.Unlock()
	return upload.progress, nil
}

// update applies fn to the progress and sends the result to all listeners.
func (upload *activeUpload) update(fn func(p *UploadProgress)) {
	upload.mu.Lock()
	defer upload.mu.Unlock()

	fn(&upload.progress)
	for _, ch := range upload.listeners {
		select {
		case ch <- upload.progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

// finish records the result, publishes the final progress and closes every
// listener.
func (upload *activeUpload) finish(result *UploadResult, fn func(p *UploadProgress)) {
	upload.mu.Lock()
	defer upload.mu.Unlock()

	fn(&upload.progress)
	upload.result = result
	for _, ch := range upload.listeners {
		// The final state must not be dropped; make room if the buffer is full.
		select {
		case ch <- upload.progress:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- upload.progress
		}
		close(ch)
	}
	upload.listeners = nil
	close(upload.Done)
}

// cleanup removes the upload from tracking after a delay.
func (s *Service) cleanup(uploadID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.uploads, uploadID)
		s.mu.Unlock()
	})
}

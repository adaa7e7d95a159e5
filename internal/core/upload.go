package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
	"github.com/JoeyNPP/Furniture-Site/internal/catalog/memstore"
)

// ProgressInterval is how many rows pass between progress broadcasts.
var ProgressInterval = 25

// StartUpload reads the file from r, then reconciles it in the background.
// It returns the upload id as soon as the file is read; use
// SubscribeProgress and GetUploadResult to follow the batch.
//
// Returns ErrTooManyUploads if every batch slot stays busy for the wait
// timeout, and ErrFileTooLarge if the file exceeds the size limit.
func (s *Service) StartUpload(ctx context.Context, fileName string, r io.Reader, size int64) (string, error) {
	if s.maxFileSize > 0 && size > s.maxFileSize {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, s.maxFileSize)
	}
	data, err := readLimited(r, s.maxFileSize)
	if err != nil {
		return "", err
	}

	// Acquire upload slot (blocks until available or timeout)
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	uploadID := uuid.New().String()
	uploadCtx, cancel := context.WithTimeout(context.Background(), s.uploadTimeout)

	upload := &activeUpload{
		ID:       uploadID,
		FileName: fileName,
		Cancel:   cancel,
		Done:     make(chan struct{}),
		progress: UploadProgress{
			UploadID:   uploadID,
			Phase:      PhaseStarting,
			FileName:   fileName,
			BytesTotal: int64(len(data)),
		},
	}

	s.mu.Lock()
	s.uploads[uploadID] = upload
	s.mu.Unlock()

	log := s.logger.With(append([]any{"upload_id", uploadID, "file", fileName}, RequesterFrom(ctx).logAttrs()...)...)
	log.Info("upload started", "bytes", len(data))

	// Process in background with panic recovery to ensure limiter release
	go func() {
		defer s.limiter.Release()
		defer cancel()
		defer s.cleanup(uploadID, s.retention)
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in upload", "panic", r)
				msg := fmt.Sprintf("internal error: %v", r)
				upload.finish(&UploadResult{
					UploadID: uploadID,
					FileName: fileName,
					Phase:    PhaseFailed,
					Error:    msg,
				}, func(p *UploadProgress) {
					p.Phase = PhaseFailed
					p.Error = msg
				})
			}
		}()
		s.processUpload(uploadCtx, log, upload, data)
	}()

	return uploadID, nil
}

// processUpload parses and reconciles one upload and publishes its result.
func (s *Service) processUpload(ctx context.Context, log *slog.Logger, upload *activeUpload, data []byte) {
	start := time.Now()

	upload.update(func(p *UploadProgress) { p.Phase = PhaseReading })
	counter := NewCountingReader(bytes.NewReader(data), int64(len(data)))
	table, err := catalog.ReadTable(counter)
	upload.update(func(p *UploadProgress) { p.BytesRead = counter.BytesRead() })
	if err != nil {
		s.fail(log, upload, catalog.Outcome{}, err, start)
		return
	}

	upload.update(func(p *UploadProgress) {
		p.Phase = PhaseReconciling
		p.TotalRows = len(table.Rows)
	})

	rc := &catalog.Reconciler{
		Store:  s.store,
		Logger: log,
		Progress: func(rp catalog.RowProgress) {
			if rp.Row%ProgressInterval != 0 && rp.Row != rp.Total {
				return
			}
			upload.update(func(p *UploadProgress) {
				p.CurrentRow = rp.Row
				p.TotalRows = rp.Total
				p.Inserted = rp.Inserted
				p.Updated = rp.Updated
				p.Skipped = rp.Skipped
			})
		},
	}

	out, err := rc.IngestTable(ctx, table, s.fieldMap, s.matchKey)
	if err != nil {
		s.fail(log, upload, out, err, start)
		return
	}

	result := &UploadResult{
		UploadID: upload.ID,
		FileName: upload.FileName,
		Phase:    PhaseComplete,
		Outcome:  out,
		Duration: time.Since(start),
	}
	upload.finish(result, func(p *UploadProgress) {
		p.Phase = PhaseComplete
		p.CurrentRow = p.TotalRows
		p.Inserted = out.Inserted
		p.Updated = out.Updated
		p.Skipped = out.Skipped
	})
	log.Info("upload complete",
		"inserted", out.Inserted,
		"updated", out.Updated,
		"skipped", out.Skipped,
		"duration", result.Duration,
	)
}

// fail ends an upload as failed or cancelled, keeping any partial outcome.
func (s *Service) fail(log *slog.Logger, upload *activeUpload, out catalog.Outcome, err error, start time.Time) {
	phase := PhaseFailed
	msg := err.Error()
	if errors.Is(err, context.Canceled) {
		phase = PhaseCancelled
		msg = "upload cancelled"
	}

	upload.finish(&UploadResult{
		UploadID: upload.ID,
		FileName: upload.FileName,
		Phase:    phase,
		Outcome:  out,
		Duration: time.Since(start),
		Error:    msg,
	}, func(p *UploadProgress) {
		p.Phase = phase
		p.Error = msg
		p.Inserted = out.Inserted
		p.Updated = out.Updated
		p.Skipped = out.Skipped
	})

	if phase == PhaseCancelled {
		log.Info("upload cancelled", "inserted", out.Inserted, "updated", out.Updated)
		return
	}
	log.Warn("upload failed", "error", err, "inserted", out.Inserted, "updated", out.Updated)
}

// IngestNow reconciles r synchronously under the same limits as StartUpload.
// A cancelled ctx returns the partial outcome together with ctx.Err().
func (s *Service) IngestNow(ctx context.Context, fileName string, r io.Reader) (catalog.Outcome, error) {
	data, err := readLimited(r, s.maxFileSize)
	if err != nil {
		return catalog.Outcome{}, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return catalog.Outcome{}, err
	}
	defer s.limiter.Release()

	log := s.logger.With(append([]any{"file", fileName}, RequesterFrom(ctx).logAttrs()...)...)
	rc := &catalog.Reconciler{Store: s.store, Logger: log}
	return rc.IngestReader(ctx, bytes.NewReader(data), s.fieldMap, s.matchKey)
}

// Preview reconciles r against an in-memory overlay of the store and reports
// what a real run would do. Nothing is written to the store.
func (s *Service) Preview(ctx context.Context, r io.Reader) (*PreviewResult, error) {
	data, err := readLimited(r, s.maxFileSize)
	if err != nil {
		return nil, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	overlay := memstore.NewOverlay(s.store)
	rc := &catalog.Reconciler{Store: overlay, Logger: s.logger.With("dry_run", true)}
	out, err := rc.IngestReader(ctx, bytes.NewReader(data), s.fieldMap, s.matchKey)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{
		Outcome:       out,
		NewSamples:    []map[string]string{},
		UpdateSamples: []PreviewUpdate{},
	}
	for _, p := range overlay.Staged() {
		if len(result.NewSamples) == maxNewSamples {
			break
		}
		result.NewSamples = append(result.NewSamples, p.Fields.Strings())
	}

	patches := overlay.PatchSet()
	ids := make([]int64, 0, len(patches))
	for id := range patches {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids[:min(len(ids), maxUpdateSamples)] {
		result.UpdateSamples = append(result.UpdateSamples, PreviewUpdate{
			ID:     id,
			Fields: patches[id].Strings(),
		})
	}
	return result, nil
}

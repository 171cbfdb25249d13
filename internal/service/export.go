package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dpshade/pocket-compose/internal/compose"
	apperrors "github.com/dpshade/pocket-compose/internal/errors"
	"github.com/dpshade/pocket-compose/internal/models"
)

// ExportManifest is the first line of an export file
type ExportManifest struct {
	BatchID        string              `json:"batch_id"`
	TemplateID     string              `json:"template_id"`
	CreatedAt      time.Time           `json:"created_at"`
	Locked         map[string][]string `json:"locked,omitempty"`
	LockedTotal    int64               `json:"locked_total"`
	Count          int                 `json:"count"`
	Truncated      bool                `json:"truncated,omitempty"`
	EstimatedBytes int64               `json:"estimated_bytes"`
	Warnings       []compose.Warning   `json:"warnings,omitempty"`
}

// ExportRecord is one exported composition
type ExportRecord struct {
	CompositionID int64            `json:"composition_id"`
	ExtIndex      int              `json:"ext_index"`
	Indices       map[string]int   `json:"indices"`
	Outputs       []compose.Output `json:"outputs"`
}

// Export enumerates the locked sub-product of sess (unlocked wildcards pinned
// to sess.CompositionID's values), resolves each composition and writes the
// manifest followed by one JSON record per line. At most cfg.ExportLimit
// records are written.
func (s *Service) Export(ctx context.Context, templateID string, sess models.Session, w io.Writer) (*ExportManifest, error) {
	space, err := s.Space(ctx, templateID)
	if err != nil {
		return nil, err
	}

	lockedTotal := space.LockedTotal(sess.Locked)
	current := space.Decode(sess.CompositionID)
	ids := compose.LockedCompositionIDs(space.Wildcards, space.ExtTextCount, current, sess.Locked, s.cfg.ExportLimit)

	records := make([]ExportRecord, 0, len(ids))
	var warnings []compose.Warning
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pass := space.Run(sess.WithComposition(id))
		if i == 0 {
			warnings = pass.Warnings
		}
		records = append(records, ExportRecord{
			CompositionID: id,
			ExtIndex:      pass.Indices.Ext,
			Indices:       pass.Indices.Wildcards,
			Outputs:       pass.Outputs,
		})
	}

	manifest := &ExportManifest{
		BatchID:     uuid.NewString(),
		TemplateID:  space.Template.ID,
		CreatedAt:   time.Now().UTC(),
		Locked:      sess.Locked,
		LockedTotal: lockedTotal,
		Count:       len(records),
		Truncated:   int64(len(records)) < lockedTotal,
		Warnings:    warnings,
	}
	if len(records) > 0 {
		sample, err := json.Marshal(records[0])
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternalError, "failed to encode export record")
		}
		manifest.EstimatedBytes = int64(len(sample)+1) * lockedTotal
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(manifest); err != nil {
		return nil, apperrors.StorageError("write export manifest", err)
	}
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, apperrors.StorageError("write export record", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, apperrors.StorageError("flush export", err)
	}

	s.log.Info("export written",
		"template", templateID, "batch_id", manifest.BatchID, "count", manifest.Count, "locked_total", lockedTotal)
	return manifest, nil
}

// ExportPath returns the default location for an export of templateID
func (s *Service) ExportPath(templateID string, m *ExportManifest) string {
	return s.storage.ExportPath(templateID + "-" + m.BatchID + ".jsonl")
}

// ExportToFile runs Export into path, or into the library's exports
// directory when path is empty, and returns the path written
func (s *Service) ExportToFile(ctx context.Context, templateID string, sess models.Session, path string) (*ExportManifest, string, error) {
	var buf bytes.Buffer
	manifest, err := s.Export(ctx, templateID, sess, &buf)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		path = s.ExportPath(templateID, manifest)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, "", apperrors.StorageError("write export", err)
	}
	return manifest, path, nil
}

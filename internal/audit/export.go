package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const exportBatch = 500

// ExportCSV writes the full product history as CSV, newest first.
func (s *Service) ExportCSV(ctx context.Context, productID uuid.UUID) ([]byte, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"created_at", "action", "responsible_user_id", "old_values", "new_values"}); err != nil {
		return nil, err
	}
	for offset := 0; ; offset += exportBatch {
		rows, err := s.repo.ListByProduct(ctx, nil, productID, "", offset, exportBatch)
		if err != nil {
			return nil, err
		}
		for _, l := range rows {
			record := []string{
				l.CreatedAt.UTC().Format(time.RFC3339),
				string(l.Action),
				l.ResponsibleUserID,
				string(l.OldValues),
				string(l.NewValues),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
		if len(rows) < exportBatch {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/blob"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

func saveImage(ctx context.Context, images ImageStore, field string, up model.Upload) (string, error) {
	if len(up.Data) == 0 {
		return "", invalidField(field, "is empty")
	}
	path, err := images.Save(ctx, up)
	if err != nil {
		if errors.Is(err, blob.ErrNotImage) {
			return "", invalidField(field, "must be a JPEG or PNG image")
		}
		return "", fmt.Errorf("store %s: %w", field, err)
	}
	return path, nil
}

// discardImage deletes a blob that is no longer referenced. Failure only
// leaves an orphaned file, so it is logged and otherwise ignored.
func discardImage(ctx context.Context, images ImageStore, log *slog.Logger, path string) {
	if err := images.Delete(context.WithoutCancel(ctx), path); err != nil {
		log.Warn("delete image failed", "path", path, "err", err)
	}
}

package batch

import (
	"context"
	"fmt"

	"github.com/phrazzld/imgbatch/internal/imageops"
	"github.com/phrazzld/imgbatch/internal/platform/logger"
)

// ImageCaption is the Caption function for image batches.
func ImageCaption(im *imageops.Image) string {
	return im.Caption()
}

// SaveImage loads the image if needed and saves it to the destination target.
func SaveImage(ctx context.Context, im *imageops.Image, dest *Destination) error {
	if err := im.Load(ctx); err != nil {
		return err
	}
	target, err := dest.Target(im.Path())
	if err != nil {
		return fmt.Errorf("failed to name destination for %s: %w", im.Caption(), err)
	}
	opts := dest.SaveOptions()
	if err := im.SaveAs(ctx, target, opts); err != nil {
		return err
	}
	logger.FromContextOrDefault(ctx).Debug("image saved",
		"target", target,
		"overwrite", opts.Overwrite)
	return nil
}

// TransformImage returns an operation that applies t to each image and saves
// it. A failed save leaves the image modified in memory, and a retry saves
// it again without applying t a second time.
func TransformImage(t imageops.Transform) Operation[*imageops.Image] {
	return func(ctx context.Context, im *imageops.Image, dest *Destination) error {
		if err := im.Load(ctx); err != nil {
			return err
		}
		if !im.Modified() {
			if err := im.Apply(t); err != nil {
				return err
			}
		}
		return SaveImage(ctx, im, dest)
	}
}

// UndoTransform returns the operation that reverts t.
func UndoTransform(t imageops.Transform) Operation[*imageops.Image] {
	return TransformImage(t.Reverse())
}

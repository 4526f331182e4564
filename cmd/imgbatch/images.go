package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/phrazzld/imgbatch/internal/batch"
	"github.com/phrazzld/imgbatch/internal/imageops"
	"github.com/phrazzld/imgbatch/internal/shell"
	"github.com/spf13/cobra"
)

// errBatchCanceled makes a canceled batch exit non-zero.
var errBatchCanceled = errors.New("batch canceled")

// destFlags are the output flags shared by the image commands.
type destFlags struct {
	dir          string
	format       string
	quality      int
	overwriteAll bool
}

func (f *destFlags) register(cmd *cobra.Command, dirUsage string) {
	cmd.Flags().StringVarP(&f.dir, "dest", "d", "", dirUsage)
	cmd.Flags().StringVar(&f.format, "format", "", "Output format when writing to --dest: png or jpeg (default: keep the source format)")
	cmd.Flags().IntVar(&f.quality, "quality", imageops.DefaultJPEGQuality, "JPEG quality, 1-100")
	cmd.Flags().BoolVar(&f.overwriteAll, "overwrite-all", false, "Replace existing files without asking")
}

func (f *destFlags) destination() (*batch.Destination, error) {
	if f.quality < 1 || f.quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", f.quality)
	}

	dest := &batch.Destination{
		OverwriteAll: f.overwriteAll,
		Quality:      f.quality,
	}
	if f.dir == "" {
		if f.format != "" {
			return nil, errors.New("--format requires --dest")
		}
		return dest, nil
	}

	namer := imageops.DirNamer{Dir: f.dir}
	if f.format != "" {
		format, err := imageops.FormatFromPath("x." + f.format)
		if err != nil {
			return nil, err
		}
		namer.Format = format
	}
	dest.Namer = namer
	return dest, nil
}

func newSaveCmd(c *cli) *cobra.Command {
	var flags destFlags
	cmd := &cobra.Command{
		Use:   "save --dest DIR FILE...",
		Short: "Save copies of images into a directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, err := flags.destination()
			if err != nil {
				return err
			}
			return c.runImages(cmd.Context(), "save", batch.SaveImage, dest, args)
		},
	}
	flags.register(cmd, "Directory to save into")
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}

func newTransformCmd(c *cli) *cobra.Command {
	var flags destFlags
	cmd := &cobra.Command{
		Use:   "transform NAME FILE...",
		Short: "Rotate or flip images (rot90, rot180, rot270, fliph, flipv)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := imageops.ParseTransform(args[0])
			if err != nil {
				return err
			}
			dest, err := flags.destination()
			if err != nil {
				return err
			}
			return c.runImages(cmd.Context(), "transform", batch.TransformImage(t), dest, args[1:])
		},
	}
	flags.register(cmd, "Directory to write into (default: overwrite the sources)")
	return cmd
}

func newUndoCmd(c *cli) *cobra.Command {
	var flags destFlags
	cmd := &cobra.Command{
		Use:   "undo NAME FILE...",
		Short: "Revert a transform applied earlier",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := imageops.ParseTransform(args[0])
			if err != nil {
				return err
			}
			dest, err := flags.destination()
			if err != nil {
				return err
			}
			return c.runImages(cmd.Context(), "undo", batch.UndoTransform(t), dest, args[1:])
		},
	}
	flags.register(cmd, "Directory to write into (default: overwrite the sources)")
	return cmd
}

// runImages runs one image batch and prints its summary. Interrupting the
// process cancels the batch; images already written are kept.
func (c *cli) runImages(ctx context.Context, name string, op batch.Operation[*imageops.Image], dest *batch.Destination, paths []string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	images := make([]*imageops.Image, len(paths))
	for i, p := range paths {
		images[i] = imageops.Open(p)
	}

	app := shell.NewApp(*c.cfg, shell.Options{
		In:  c.streams.In,
		Out: c.streams.Err,
	}, c.logger)
	// the loop outlives ctx so the finished callback of a canceled batch still runs
	app.Start(context.WithoutCancel(ctx))
	defer app.Close()

	res, err := shell.RunBatch(ctx, app, batch.Config[*imageops.Image]{
		Name:        name,
		Items:       images,
		Operation:   op,
		Caption:     batch.ImageCaption,
		Destination: dest,
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.streams.Out, "%s: %s (saved %d, skipped %d, not attempted %d)\n",
		name, res.Outcome, res.Counts.Saved, res.Counts.Skipped, res.Counts.NotAttempted)

	if res.Outcome == batch.Canceled {
		return errBatchCanceled
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mstream/internal/formatter"
	"github.com/desertthunder/mstream/internal/models"
	"github.com/desertthunder/mstream/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries YouTube through the backend.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	r.logger.Info("searching", "query", query)

	videos, err := r.backend.Search(ctx, query, cmd.Int("max"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(videos, cmd.Bool("pretty"))
	}
	if cmd.IsSet("format") {
		return r.export(cmd, formatter.VideoListing(query, videos), "search")
	}

	r.writePlainHeader(fmt.Sprintf("Results for %q", query))
	if len(videos) == 0 {
		return r.writePlain("No results found\n")
	}
	for i, v := range videos {
		r.writePlain("%2d. %s\n    %s • %s\n", i+1, v.Title, v.Channel, v.ID)
	}
	return nil
}

// Local lists the MP3 files the backend serves.
func (r *Runner) Local(ctx context.Context, cmd *cli.Command) error {
	files, err := r.backend.LocalFiles(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(files, cmd.Bool("pretty"))
	}
	if cmd.IsSet("format") {
		return r.export(cmd, formatter.LocalListing(files), "local")
	}

	r.writePlainHeader("Local Files")
	if len(files) == 0 {
		return r.writePlain("No local files found\n")
	}
	for _, f := range files {
		src := models.LocalSource(f)
		r.writePlain("• %s (%s)\n", src.DisplayTitle(), src.StreamURL())
	}
	return nil
}

// Playlists lists playlist summaries.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	playlists, err := r.backend.Playlists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}
	if cmd.IsSet("format") {
		return r.export(cmd, formatter.PlaylistListing(playlists), "playlists")
	}

	r.writePlainHeader("Playlists")
	if len(playlists) == 0 {
		return r.writePlain("No playlists found\n")
	}
	for _, p := range playlists {
		r.writePlain("• %s (%d songs)\n", p.Name, p.Count)
	}
	return nil
}

// export renders listing in the --format encoding, to --output when given and to stdout otherwise.
func (r *Runner) export(cmd *cli.Command, listing *formatter.Listing, name string) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if cmd.IsSet("output") {
		path, err := formatter.WriteExport(listing, format, cmd.String("output"), name)
		if err != nil {
			return err
		}
		r.logger.Info("exported listing", "format", format, "path", path, "entries", len(listing.Rows))
		return r.writePlain("✓ Exported %d entries to %s\n", len(listing.Rows), path)
	}

	data, err := formatter.Export(listing, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// package formatter exports catalog listings (search results, local files, playlists) to CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/mstream/internal/models"
	"github.com/desertthunder/mstream/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts the CLI spelling of a format ("md" is an alias for markdown).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension is the file extension used when writing f to disk.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// Listing is a titled table of catalog entries.
type Listing struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// VideoListing lists search results with their resolved stream paths.
func VideoListing(query string, videos []models.Video) *Listing {
	l := &Listing{
		Title:   fmt.Sprintf("Results for %q", query),
		Headers: []string{"ID", "Title", "Channel", "Stream"},
	}
	for _, v := range videos {
		l.Rows = append(l.Rows, []string{v.ID, v.Title, v.Channel, v.Source().StreamURL()})
	}
	return l
}

// LocalListing lists backend MP3 files.
func LocalListing(files []string) *Listing {
	l := &Listing{Title: "Local Files", Headers: []string{"Filename", "Title", "Stream"}}
	for _, f := range files {
		src := models.LocalSource(f)
		l.Rows = append(l.Rows, []string{f, src.DisplayTitle(), src.StreamURL()})
	}
	return l
}

// PlaylistListing lists playlist summaries.
func PlaylistListing(playlists []models.Playlist) *Listing {
	l := &Listing{Title: "Playlists", Headers: []string{"Name", "Songs"}}
	for _, p := range playlists {
		l.Rows = append(l.Rows, []string{p.Name, strconv.Itoa(p.Count)})
	}
	return l
}

// Export renders l in the given format.
func Export(l *Listing, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(l)
	case FormatMarkdown:
		return ExportToMarkdown(l)
	case FormatText:
		return ExportToText(l)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToCSV writes the header row followed by one record per entry.
func ExportToCSV(l *Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(l.Headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range l.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading and a pipe table.
func ExportToMarkdown(l *Listing) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", l.Title))
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n\n", len(l.Rows)))

	if len(l.Rows) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| " + strings.Join(l.Headers, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(l.Headers)) + "\n")
	for _, row := range l.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	return buf.Bytes(), nil
}

// ExportToText renders a numbered list using the first two columns.
func ExportToText(l *Listing) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", l.Title))
	buf.WriteString(fmt.Sprintf("Entries: %d\n\n", len(l.Rows)))

	for i, row := range l.Rows {
		switch len(row) {
		case 0:
			continue
		case 1:
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, row[0]))
		default:
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, row[0], row[1]))
		}
	}

	return buf.Bytes(), nil
}

// WriteExport renders l and writes it to path, creating parent directories.
//
// Defaults to {name}{ext} in the working directory when path is empty.
func WriteExport(l *Listing, f Format, path, name string) (string, error) {
	if path == "" {
		path = name + f.Extension()
	}

	data, err := Export(l, f)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

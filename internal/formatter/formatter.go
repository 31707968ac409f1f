// package formatter provides functions to export migration reports to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/mgx/internal/models"
)

// ExportToCSV converts a MigrationResult to CSV format with one row per song.
//
// Columns: Outcome, Title, Artist, Album, Matched With, Score, Reason
func ExportToCSV(report *models.MigrationResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Outcome", "Title", "Artist", "Album", "Matched With", "Score", "Reason"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	writeEntry := func(outcome string, entry models.ResultEntry) error {
		return writer.Write([]string{
			outcome,
			entry.Song.Title,
			entry.Song.Artist,
			entry.Song.Album,
			entry.MatchedWith,
			strconv.FormatFloat(entry.MatchScore, 'f', 2, 64),
			"",
		})
	}

	for _, entry := range report.Accepted {
		if err := writeEntry("accepted", entry); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	for _, entry := range report.Manual {
		if err := writeEntry("manual", entry); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	for _, entry := range report.Rejected {
		record := []string{"rejected", entry.Song.Title, entry.Song.Artist, entry.Song.Album, "", "", entry.Reason}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a MigrationResult to Markdown format
func ExportToMarkdown(report *models.MigrationResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Migration %s\n\n", report.SessionID))
	buf.WriteString(fmt.Sprintf("**Processed**: %d/%d\n", report.Totals.Processed, report.Totals.Total))
	buf.WriteString(fmt.Sprintf("**Accepted**: %d\n", report.Totals.Accepted))
	buf.WriteString(fmt.Sprintf("**Rejected**: %d\n", report.Totals.Rejected))
	buf.WriteString(fmt.Sprintf("**Manual**: %d\n\n", report.Totals.Manual))

	writeSection := func(title string, entries []models.ResultEntry) {
		if len(entries) == 0 {
			return
		}
		buf.WriteString(fmt.Sprintf("## %s\n\n", title))
		for i, entry := range entries {
			buf.WriteString(fmt.Sprintf("%d. %s - %s → %s (%.0f%%)\n", i+1, entry.Song.Artist, entry.Song.Title, entry.MatchedWith, entry.MatchScore*100))
		}
		buf.WriteString("\n")
	}

	writeSection("Accepted", report.Accepted)
	writeSection("Manually Resolved", report.Manual)

	if len(report.Rejected) > 0 {
		buf.WriteString("## Rejected\n\n")
		for i, entry := range report.Rejected {
			reasonPart := ""
			if entry.Reason != "" {
				reasonPart = fmt.Sprintf(" (%s)", entry.Reason)
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, entry.Song.Artist, entry.Song.Title, reasonPart))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a MigrationResult to plain text format
func ExportToText(report *models.MigrationResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Migration: %s\n", report.SessionID))
	buf.WriteString(fmt.Sprintf("Processed: %d/%d\n", report.Totals.Processed, report.Totals.Total))
	buf.WriteString(fmt.Sprintf("Accepted: %d  Rejected: %d  Manual: %d\n\n", report.Totals.Accepted, report.Totals.Rejected, report.Totals.Manual))

	for i, entry := range report.Accepted {
		buf.WriteString(fmt.Sprintf("%d. [accepted] %s - %s\n", i+1, entry.Song.Artist, entry.Song.Title))
	}
	for i, entry := range report.Manual {
		buf.WriteString(fmt.Sprintf("%d. [manual] %s - %s\n", len(report.Accepted)+i+1, entry.Song.Artist, entry.Song.Title))
	}
	for i, entry := range report.Rejected {
		buf.WriteString(fmt.Sprintf("%d. [rejected] %s - %s\n", len(report.Accepted)+len(report.Manual)+i+1, entry.Song.Artist, entry.Song.Title))
	}

	return buf.Bytes(), nil
}

// WriteReport exports a report in the given format ("csv", "md", or "text")
// to the given path, defaulting the filename to the session ID.
func WriteReport(report *models.MigrationResult, format, path string) (string, error) {
	var data []byte
	var err error
	var ext string

	switch format {
	case "csv":
		data, err = ExportToCSV(report)
		ext = ".csv"
	case "md", "markdown":
		data, err = ExportToMarkdown(report)
		ext = ".md"
	case "text", "txt":
		data, err = ExportToText(report)
		ext = ".txt"
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	if path == "" {
		path = report.SessionID + "_report" + ext
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

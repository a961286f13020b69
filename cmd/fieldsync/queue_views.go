package main

import (
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fieldsync/internal/ipc"
)

var labelCaser = cases.Title(language.English)

// renderItemsTable renders queued captures newest first, one row per item.
func renderItemsTable(items []ipc.QueueItem) string {
	sorted := make([]ipc.QueueItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Type", "Status", "Created", "Retries", "Last Error"})
	for _, item := range sorted {
		tw.AppendRow(table.Row{
			shortID(item.ID),
			formatCaptureLabel(item.Type),
			formatStatusLabel(item.Status),
			formatDisplayTime(item.CreatedAt),
			item.RetryCount,
			formatLastError(item.LastError),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// renderCountsTable renders per-status counts with a footer total.
func renderCountsTable(stats map[string]int) string {
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Status", "Count"})
	total := 0
	for _, key := range keys {
		tw.AppendRow(table.Row{formatStatusLabel(key), stats[key]})
		total += stats[key]
	}
	tw.AppendFooter(table.Row{"Total", total})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return labelCaser.String(strings.ReplaceAll(status, "_", " "))
}

func formatCaptureLabel(captureType string) string {
	captureType = strings.TrimSpace(captureType)
	if captureType == "" {
		return ""
	}
	return labelCaser.String(strings.ReplaceAll(captureType, "_", " "))
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatLastError(lastError string) string {
	lastError = strings.TrimSpace(lastError)
	if lastError == "" {
		return "-"
	}
	if len(lastError) > 48 {
		return lastError[:48] + "..."
	}
	return lastError
}

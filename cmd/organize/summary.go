package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"organize/internal/mediafile"
	"organize/internal/organizer"
	"organize/internal/placement"
	"organize/internal/runlog"
)

var summaryKinds = []mediafile.Kind{
	mediafile.KindImage,
	mediafile.KindHeic,
	mediafile.KindVideo,
	mediafile.KindUnsupported,
}

func renderSummary(s organizer.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Organize summary")
	tw.AppendHeader(table.Row{"Item", "Value"})

	placedLabel := "Copied"
	if s.Mode == placement.ModeMove {
		placedLabel = "Moved"
	}
	tw.AppendRows([]table.Row{
		{"Run", s.RunID},
		{"Source", s.SourceRoot},
		{"Destination", s.DestRoot},
		{"Files", count(s.Files)},
		{placedLabel, count(s.Placed)},
		{"Duplicates", count(s.Duplicates)},
		{"No metadata", count(s.NoMetadata)},
		{"Failed", count(s.Failed)},
		{"Sidecars", sidecarCell(s)},
		{"Written", humanize.Bytes(uint64(s.Bytes))},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	})

	tw.AppendSeparator()
	for _, kind := range summaryKinds {
		if n := s.ByKind[kind]; n > 0 {
			tw.AppendRow(table.Row{kindLabel(kind), count(n)})
		}
	}

	if s.NoMetadata > 0 || s.Duplicates > 0 {
		tw.AppendSeparator()
		if s.NoMetadata > 0 {
			tw.AppendRow(table.Row{"No-metadata log", filepath.Join(s.DestRoot, runlog.NoMetadataFileName)})
		}
		if s.Duplicates > 0 {
			tw.AppendRow(table.Row{"Duplicate log", filepath.Join(s.DestRoot, runlog.DuplicateFileName)})
		}
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func sidecarCell(s organizer.Summary) string {
	if s.SidecarFailures == 0 {
		return count(s.Sidecars)
	}
	return fmt.Sprintf("%s (%s failed)", count(s.Sidecars), strconv.Itoa(s.SidecarFailures))
}

func kindLabel(kind mediafile.Kind) string {
	if kind == mediafile.KindHeic {
		return "HEIC images"
	}
	return cases.Title(language.English).String(kind.String()) + " files"
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCompactCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Compact the audit journal to reclaim disk space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := a.openJournal()
			if err != nil {
				return err
			}

			info, err := os.Stat(j.Path())
			if err != nil {
				return err
			}
			sizeBefore := info.Size()

			if err := j.Compact(); err != nil {
				return err
			}

			info, err = os.Stat(j.Path())
			if err != nil {
				return err
			}
			sizeAfter := info.Size()

			a.success("Compacted: %s -> %s", formatSize(sizeBefore), formatSize(sizeAfter))
			return nil
		},
	}
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

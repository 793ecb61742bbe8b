package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"nugget-translator/internal/config"
	"nugget-translator/internal/filewalker"
	"nugget-translator/internal/nugget"
	"nugget-translator/internal/textutil"

	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "List the nuggets of a file with their line, comment and format items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.OutOrStdout(), args[0])
		},
	}
}

// runInspect handles the `inspect` command.
func runInspect(stdout io.Writer, path string) error {
	cfg := config.Load()

	source, err := cfg.NewParser(nugget.SourceProcessing)
	if err != nil {
		return err
	}
	response, err := cfg.NewParser(nugget.ResponseProcessing)
	if err != nil {
		return err
	}

	entry := filewalker.FileEntry{Path: path, Ext: strings.ToLower(filepath.Ext(path))}
	content, err := filewalker.Read(entry)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tMSGID\tCOMMENT\tITEMS")

	count := 0
	source.ParseFile(content, func(nuggetText string, offset int, n *nugget.Nugget, entity string) (string, bool) {
		count++

		line := "-"
		if entity == content {
			line = fmt.Sprint(textutil.LineAt(content, offset))
		}

		items := "-"
		if b, ok := response.Breakdown(nuggetText); ok && b.IsFormatted() {
			items = strings.Join(b.FormatItems, ", ")
		} else if !ok {
			items = "(malformed)"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", line, quote(n.MsgID), quote(n.Comment), items)
		return "", false
	}, entry.Ext)

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write listing: %w", err)
	}
	fmt.Fprintf(stdout, "%d nuggets\n", count)
	return nil
}

// quote keeps each listing row on one line.
func quote(s string) string {
	if s == "" {
		return "-"
	}
	return textutil.Truncate(strings.NewReplacer("\r", `\r`, "\n", `\n`, "\t", `\t`).Replace(s), 60)
}

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var prune bool
	var forget string

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List recently saved projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureRegistry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if forget != "" {
				if err := store.Forget(cmd.Context(), forget); err != nil {
					return err
				}
			}
			if prune {
				removed, err := store.Prune(cmd.Context())
				if err != nil {
					return err
				}
				if !ctx.JSONMode() {
					fmt.Fprintf(out, "Forgot %d projects whose save file is gone\n", removed)
				}
			}
			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recent projects")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Name,
					entry.Mode,
					strconv.Itoa(entry.Words),
					formatAge(time.Since(entry.UpdatedAt)),
					entry.SavePath,
				})
			}
			fmt.Fprint(out, renderTable(out,
				[]string{"Project", "Mode", "Rows", "Saved", "File"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of projects to list")
	cmd.Flags().StringVar(&forget, "forget", "", "Remove this save file from the list")
	cmd.Flags().BoolVar(&prune, "prune", false, "Forget projects whose save file no longer exists")
	return cmd
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hermes/internal/config"
	"hermes/internal/converter"
	"hermes/internal/template"
)

func newTemplateCommand(ctx *commandContext) *cobra.Command {
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Reuse a project's rows as the start of another",
	}

	templateCmd.AddCommand(newTemplateCreateCommand(ctx))
	templateCmd.AddCommand(newTemplateLoadCommand(ctx))

	return templateCmd
}

func newTemplateCreateCommand(ctx *commandContext) *cobra.Command {
	var name, fields string

	cmd := &cobra.Command{
		Use:   "create <project>",
		Short: "Save a project's text as a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selection, err := template.ParseFieldSelection(fields)
			if err != nil {
				return err
			}
			return ctx.withProject(cmd.Context(), args[0], func(conv *converter.Converter) (bool, error) {
				path, count, err := conv.CreateTemplate(name, selection)
				if err != nil {
					return false, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows (%s) to %s\n", count, selection, path)
				return false, nil
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Template name (defaults to the project name)")
	cmd.Flags().StringVar(&fields, "fields", "both", "Columns to keep: both, transcription or translation")
	return cmd
}

func newTemplateLoadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load <project> <template>",
		Short: "Append a template's rows to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			return ctx.withProject(cmd.Context(), args[0], func(conv *converter.Converter) (bool, error) {
				count, err := conv.LoadTemplate(path)
				if err != nil {
					return false, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d rows from %s\n", count, path)
				return count > 0, nil
			})
		},
	}
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hermes/internal/config"
	"hermes/internal/converter"
	"hermes/internal/project"
)

func newRowCommand(ctx *commandContext) *cobra.Command {
	rowCmd := &cobra.Command{
		Use:   "row",
		Short: "Edit the rows of a saved project",
	}

	rowCmd.AddCommand(newRowAddCommand(ctx))
	rowCmd.AddCommand(newRowEditCommand(ctx))
	rowCmd.AddCommand(newRowDeleteCommand(ctx))
	rowCmd.AddCommand(newRowImageCommand(ctx))
	rowCmd.AddCommand(newRowAudioCommand(ctx))

	return rowCmd
}

func parseRowIndex(value string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid row number %q", value)
	}
	return index, nil
}

func translationFlag(cmd *cobra.Command, value string) *string {
	if !cmd.Flags().Changed("translation") {
		return nil
	}
	return project.Text(value)
}

func newRowAddCommand(ctx *commandContext) *cobra.Command {
	var translation string

	cmd := &cobra.Command{
		Use:   "add <project> <transcription>",
		Short: "Append a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd.Context(), args[0], func(conv *converter.Converter) (bool, error) {
				index, err := conv.AddRow(args[1], translationFlag(cmd, translation))
				if err != nil {
					return false, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added row %d\n", index)
				return true, nil
			})
		},
	}
	cmd.Flags().StringVar(&translation, "translation", "", "Translation of the row")
	return cmd
}

func newRowEditCommand(ctx *commandContext) *cobra.Command {
	var (
		transcription    string
		translation      string
		clearTranslation bool
	)

	cmd := &cobra.Command{
		Use:   "edit <project> <row>",
		Short: "Change the text of a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseRowIndex(args[1])
			if err != nil {
				return err
			}
			return ctx.withProject(cmd.Context(), args[0], func(conv *converter.Converter) (bool, error) {
				rows, err := conv.Rows()
				if err != nil {
					return false, err
				}
				if index >= len(rows) {
					return false, fmt.Errorf("row %d out of range (project has %d rows)", index, len(rows))
				}
				current := rows[index]
				text := current.Transcription
				if cmd.Flags().Changed("transcription") {
					text = transcription
				}
				tr := current.Translation
				switch {
				case clearTranslation:
					tr = nil
				case cmd.Flags().Changed("translation"):
					tr = project.Text(translation)
				}
				if err := conv.EditRow(index, text, tr); err != nil {
					return false, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated row %d\n", index)
				return true, nil
			})
		},
	}
	cmd.Flags().StringVar(&transcription, "transcription", "", "New transcription")
	cmd.Flags().StringVar(&translation, "translation", "", "New translation")
	cmd.Flags().BoolVar(&clearTranslation, "clear-translation", false, "Remove the translation")
	return cmd
}

func newRowDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project> <row>",
		Short: "Remove a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseRowIndex(args[1])
			if err != nil {
				return err
			}
			return ctx.withProject(cmd.Context(), args[0], func(conv *converter.Converter) (bool, error) {
				if err := conv.DeleteRow(index); err != nil {
					return false, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted row %d\n", index)
				return true, nil
			})
		},
	}
}

func newRowImageCommand(ctx *commandContext) *cobra.Command {
	var clearAsset bool

	cmd := &cobra.Command{
		Use:   "image <project> <row> [image]",
		Short: "Attach or clear a row's image",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseRowIndex(args[1])
			if err != nil {
				return err
			}
			if !clearAsset && len(args) < 3 {
				return fmt.Errorf("image path is required unless --clear is set")
			}
			return ctx.withProject(cmd.Context(), args[0], func(conv *converter.Converter) (bool, error) {
				if clearAsset {
					return true, conv.ClearImage(index)
				}
				path, err := config.ExpandPath(args[2])
				if err != nil {
					return false, err
				}
				if err := conv.AttachImage(index, path); err != nil {
					return false, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Attached %s to row %d\n", path, index)
				return true, nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearAsset, "clear", false, "Remove the image instead")
	return cmd
}

func newRowAudioCommand(ctx *commandContext) *cobra.Command {
	var clearAsset bool

	cmd := &cobra.Command{
		Use:   "audio <project> <row> [recording.wav]",
		Short: "Replace or clear a row's audio clip",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseRowIndex(args[1])
			if err != nil {
				return err
			}
			if !clearAsset && len(args) < 3 {
				return fmt.Errorf("recording path is required unless --clear is set")
			}
			return ctx.withProject(cmd.Context(), args[0], func(conv *converter.Converter) (bool, error) {
				if clearAsset {
					return true, conv.ClearAudio(index)
				}
				src, err := config.ExpandPath(args[2])
				if err != nil {
					return false, err
				}
				clip, err := conv.AttachAudioFile(index, src)
				if err != nil {
					return false, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored recording for row %d at %s\n", index, clip)
				return true, nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearAsset, "clear", false, "Remove the audio instead")
	return cmd
}

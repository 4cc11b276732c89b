package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hermes/internal/audio"
	"hermes/internal/config"
	"hermes/internal/converter"
	"hermes/internal/elan"
	"hermes/internal/language"
	"hermes/internal/project"
)

type metadataFlags struct {
	author                string
	transcriptionLanguage string
	translationLanguage   string
}

func (m *metadataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.author, "author", "", "Author recorded in the project metadata")
	cmd.Flags().StringVar(&m.transcriptionLanguage, "transcription-language", "", "Language of the transcriptions")
	cmd.Flags().StringVar(&m.translationLanguage, "translation-language", "", "Language of the translations")
}

func (m *metadataFlags) metadata() project.Metadata {
	return project.Metadata{
		Author:                strings.TrimSpace(m.author),
		TranscriptionLanguage: strings.TrimSpace(m.transcriptionLanguage),
		TranslationLanguage:   strings.TrimSpace(m.translationLanguage),
	}
}

func newNewCommand(ctx *commandContext) *cobra.Command {
	var meta metadataFlags

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create an empty project for rows entered by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withConverter(nil, func(conv *converter.Converter) error {
				if err := conv.NewScratchProject(args[0], meta.metadata()); err != nil {
					return err
				}
				return saveAndReport(cmd, conv)
			})
		},
	}
	meta.register(cmd)
	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var (
		name              string
		transcriptionTier string
		translationTier   string
		mediaPath         string
		meta              metadataFlags
	)

	cmd := &cobra.Command{
		Use:   "import <file.eaf>",
		Short: "Create a project from an ELAN transcript",
		Long: `Create a project from an ELAN transcript.

Each annotation of the transcription tier becomes a row. When a translation
tier is given, each row takes the first translation annotation starting and
ending within a millisecond of it. Audio clips are cut from the transcript's
linked recording, which is found from the file's media descriptor, then
--media, then an interactive prompt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eafPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(transcriptionTier) == "" {
				return errors.New("--transcription-tier is required (list tiers with `hermes tiers`)")
			}
			projectName := strings.TrimSpace(name)
			if projectName == "" {
				projectName = strings.TrimSuffix(filepath.Base(eafPath), filepath.Ext(eafPath))
			}
			locator := mediaLocator(mediaPath, cmd.InOrStdin(), cmd.ErrOrStderr())
			return ctx.withConverter(locator, func(conv *converter.Converter) error {
				result, err := conv.ImportELAN(cmd.Context(), projectName, eafPath, meta.metadata())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if result.Media == "" {
					fmt.Fprintln(out, "Source recording not found; rows will have no audio")
				} else {
					fmt.Fprintf(out, "Source recording: %s\n", result.Media)
				}
				count, err := conv.SelectTiers(transcriptionTier, translationTier)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Created %d rows from tier %q\n", count, transcriptionTier)
				return saveAndReport(cmd, conv)
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (defaults to the file name)")
	cmd.Flags().StringVarP(&transcriptionTier, "transcription-tier", "t", "", "Tier holding the transcriptions")
	cmd.Flags().StringVarP(&translationTier, "translation-tier", "l", converter.NoTranslationTier, "Tier holding the translations, or None")
	cmd.Flags().StringVar(&mediaPath, "media", "", "Source recording to use when the linked media is missing")
	meta.register(cmd)
	return cmd
}

// mediaLocator returns the --media path when given and otherwise asks on the
// terminal. Non-interactive runs leave the recording unresolved.
func mediaLocator(mediaPath string, in io.Reader, prompt io.Writer) audio.Locator {
	return func(ctx context.Context, tried []string) (string, error) {
		if path := strings.TrimSpace(mediaPath); path != "" {
			return config.ExpandPath(path)
		}
		file, ok := in.(*os.File)
		if !ok || !isTerminal(file) {
			return "", nil
		}
		fmt.Fprintln(prompt, "Linked recording not found. Tried:")
		for _, path := range tried {
			fmt.Fprintf(prompt, "  %s\n", path)
		}
		fmt.Fprint(prompt, "Path to the recording (empty to skip): ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if strings.TrimSpace(line) == "" {
			return "", nil
		}
		return config.ExpandPath(strings.TrimSpace(line))
	}
}

func saveAndReport(cmd *cobra.Command, conv *converter.Converter) error {
	paths, err := conv.Paths()
	if err != nil {
		return err
	}
	target := conv.SaveTarget()
	if target == "" {
		target = paths.SaveFile()
	}
	result, err := conv.SaveAs(cmd.Context(), target)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, warning := range result.Warnings {
		printWarning(out, warning)
	}
	printSuccess(out, "Saved %d rows to %s", result.Words, result.Target)
	return nil
}

func newTiersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers <file.eaf>",
		Short: "List the tiers of an ELAN transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			doc, err := elan.Open(path)
			if err != nil {
				return err
			}
			type tierView struct {
				Name        string `json:"name"`
				Parent      string `json:"parent,omitempty"`
				Language    string `json:"language,omitempty"`
				Annotations int    `json:"annotations"`
			}
			views := make([]tierView, 0, len(doc.TierNames()))
			for _, name := range doc.TierNames() {
				tier, _ := doc.Tier(name)
				views = append(views, tierView{Name: name, Parent: tier.Parent, Language: language.Label(tier.Language), Annotations: len(tier.Annotations)})
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"file": doc.Path, "media": doc.MediaCandidates(), "tiers": views})
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.Name, v.Parent, v.Language, strconv.Itoa(v.Annotations)})
			}
			fmt.Fprint(out, renderTable(out, []string{"Tier", "Parent", "Language", "Annotations"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
			if doc.Unaligned > 0 {
				fmt.Fprintf(out, "%d annotations have no time alignment and will be skipped\n", doc.Unaligned)
			}
			return nil
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "show <project>",
		Short: "Show the rows of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd.Context(), args[0], func(conv *converter.Converter) (bool, error) {
				rows, err := conv.Filter(filter)
				if err != nil {
					return false, err
				}
				if ctx.JSONMode() {
					return false, writeJSON(cmd, rowsJSON(rows))
				}
				out := cmd.OutOrStdout()
				if meta := conv.Model().Metadata(); meta.TranscriptionLanguage != "" || meta.TranslationLanguage != "" {
					fmt.Fprintf(out, "Languages: %s -> %s\n", describeLanguage(meta.TranscriptionLanguage), describeLanguage(meta.TranslationLanguage))
				}
				printRows(out, rows)
				return false, nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only show rows whose text contains this value")
	return cmd
}

func describeLanguage(value string) string {
	if value == "" {
		return "?"
	}
	if code := language.Code(value); code != "" {
		return fmt.Sprintf("%s (%s)", value, code)
	}
	return value
}

type rowJSON struct {
	Index         int     `json:"index"`
	ID            string  `json:"id"`
	Transcription string  `json:"transcription"`
	Translation   *string `json:"translation"`
	Audio         string  `json:"audio,omitempty"`
	HasAudio      bool    `json:"has_audio"`
	Image         string  `json:"image,omitempty"`
	Included      bool    `json:"included"`
}

func rowsJSON(rows []converter.Row) []rowJSON {
	out := make([]rowJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowJSON{
			Index:         row.Index,
			ID:            row.ID,
			Transcription: row.Transcription,
			Translation:   row.Translation,
			Audio:         row.Audio,
			HasAudio:      row.HasAudio,
			Image:         row.Image,
			Included:      row.Included,
		})
	}
	return out
}

func printRows(out io.Writer, rows []converter.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No rows")
		return
	}
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		translation := "-"
		if row.Translation != nil {
			translation = *row.Translation
		}
		image := ""
		if row.Image != "" {
			image = filepath.Base(row.Image)
		}
		table = append(table, []string{strconv.Itoa(row.Index), row.Transcription, translation, yesNo(row.HasAudio), image, yesNo(row.Included)})
	}
	fmt.Fprint(out, renderTable(out,
		[]string{"#", "Transcription", "Translation", "Audio", "Image", "Export"},
		table,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
}

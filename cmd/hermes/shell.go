package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hermes/internal/config"
	"hermes/internal/converter"
	"hermes/internal/export"
	"hermes/internal/failure"
	"hermes/internal/project"
	"hermes/internal/template"
)

const shellHelp = `Commands:
  list [text]                 show rows, optionally filtered
  add <text> [| translation]  append a row
  edit <n> <text> [| tr]      replace a row's text
  delete <n>                  remove a row
  include <n>...|all          mark rows for export
  exclude <n>...|all          leave rows out of export
  image <n> <path>|-          attach or clear an image
  audio <n> <path>|-          attach a recording or clear the clip
  clip <n>                    cut and print the path of a row's clip
  export [mode] [dest]        export the included rows
  template [name] [fields]    save a template of this project
  save [path]                 save now
  help                        show this help
  quit                        save and leave`

var errQuit = errors.New("quit")

func newShellCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "shell <project>",
		Short: "Edit a project interactively with autosave",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withConverter(nil, func(conv *converter.Converter) error {
				if err := openProjectRef(cmd.Context(), conv, args[0]); err != nil {
					return err
				}
				if cfg.Session.AutosaveEnabled {
					if err := conv.StartAutosave(cmd.Context()); err != nil {
						return err
					}
				}
				reader, out, restore := newLineReader(cmd.InOrStdin(), cmd.OutOrStdout())
				defer restore()

				sh := &shell{conv: conv, out: out}
				fmt.Fprintf(out, "Editing %s (%s, %d rows). Type help for commands.\n", conv.Model().Name(), conv.Mode(), conv.Model().Len())
				runErr := sh.loop(cmd.Context(), reader)
				conv.StopAutosave()
				if _, err := conv.Save(cmd.Context()); err != nil {
					return errors.Join(runErr, err)
				}
				return runErr
			})
		},
	}
}

type lineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct{ scanner *bufio.Scanner }

func (r scannerReader) ReadLine() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// newLineReader uses an x/term line editor with history when both ends are a
// terminal and plain line scanning otherwise.
func newLineReader(in io.Reader, out io.Writer) (lineReader, io.Writer, func()) {
	inFile, inOK := in.(*os.File)
	if inOK && isTerminal(inFile) && isTerminal(out) {
		state, err := term.MakeRaw(int(inFile.Fd()))
		if err == nil {
			t := term.NewTerminal(struct {
				io.Reader
				io.Writer
			}{inFile, out}, "hermes> ")
			return t, t, func() { _ = term.Restore(int(inFile.Fd()), state) }
		}
	}
	return scannerReader{scanner: bufio.NewScanner(in)}, out, func() {}
}

type shell struct {
	conv *converter.Converter
	out  io.Writer
}

func (s *shell) loop(ctx context.Context, reader lineReader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.run(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *shell) run(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit", "q":
		return errQuit
	case "list", "ls":
		rows, err := s.conv.Filter(rest)
		if err != nil {
			return err
		}
		printRows(s.out, rows)
	case "add":
		text, tr := splitTranslation(rest)
		index, err := s.conv.AddRow(text, tr)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "added row %d\n", index)
	case "edit":
		index, body, err := rowArg(rest)
		if err != nil {
			return err
		}
		text, tr := splitTranslation(body)
		return s.conv.EditRow(index, text, tr)
	case "delete", "rm":
		index, _, err := rowArg(rest)
		if err != nil {
			return err
		}
		return s.conv.DeleteRow(index)
	case "include", "exclude":
		return s.setInclusion(rest, strings.EqualFold(verb, "include"))
	case "image":
		index, path, err := rowArg(rest)
		if err != nil {
			return err
		}
		if path == "-" {
			return s.conv.ClearImage(index)
		}
		if path, err = config.ExpandPath(path); err != nil {
			return err
		}
		return s.conv.AttachImage(index, path)
	case "audio":
		index, path, err := rowArg(rest)
		if err != nil {
			return err
		}
		if path == "-" {
			return s.conv.ClearAudio(index)
		}
		if path, err = config.ExpandPath(path); err != nil {
			return err
		}
		clip, err := s.conv.AttachAudioFile(index, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "stored %s\n", clip)
	case "clip", "play":
		index, _, err := rowArg(rest)
		if err != nil {
			return err
		}
		clip, err := s.conv.ResolveAudio(ctx, index)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, clip)
	case "export":
		return s.export(ctx, rest)
	case "template":
		name, fieldsArg, _ := strings.Cut(rest, " ")
		fields, err := template.ParseFieldSelection(fieldsArg)
		if err != nil {
			return err
		}
		path, count, err := s.conv.CreateTemplate(name, fields)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "wrote %d rows to %s\n", count, path)
	case "save":
		var err error
		if rest == "" {
			_, err = s.conv.Save(ctx)
		} else {
			var path string
			if path, err = config.ExpandPath(rest); err == nil {
				_, err = s.conv.SaveAs(ctx, path)
			}
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "saved to %s\n", s.conv.SaveTarget())
	default:
		return fmt.Errorf("unknown command %q (try help)", verb)
	}
	return nil
}

func (s *shell) setInclusion(args string, include bool) error {
	if strings.EqualFold(args, "all") {
		return s.conv.SetAllIncluded(include)
	}
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return errors.New("row numbers or all required")
	}
	for _, field := range fields {
		index, err := parseRowIndex(field)
		if err != nil {
			return err
		}
		if err := s.conv.SetInclusion(index, include); err != nil {
			return err
		}
	}
	return nil
}

func (s *shell) export(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	var mode export.Mode
	dest := ""
	if len(fields) > 0 {
		parsed, err := export.ParseMode(fields[0])
		if err != nil {
			return err
		}
		mode = parsed
	}
	if len(fields) > 1 {
		expanded, err := config.ExpandPath(strings.Join(fields[1:], " "))
		if err != nil {
			return err
		}
		dest = expanded
	}
	summary, err := s.conv.ExportNow(ctx, mode, dest, nil)
	if errors.Is(err, failure.ErrNoExportLocation) {
		return errors.New("no export location yet: export <mode> <dest>")
	}
	if err != nil {
		return err
	}
	printSummary(s.out, summary)
	return nil
}

func rowArg(args string) (int, string, error) {
	first, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	if first == "" {
		return 0, "", errors.New("row number required")
	}
	index, err := parseRowIndex(first)
	if err != nil {
		return 0, "", err
	}
	return index, strings.TrimSpace(rest), nil
}

// splitTranslation splits "text | translation". Without a bar the
// translation is absent.
func splitTranslation(value string) (string, *string) {
	text, tr, found := strings.Cut(value, "|")
	text = strings.TrimSpace(text)
	if !found {
		return text, nil
	}
	return text, project.Text(strings.TrimSpace(tr))
}

package controller

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/google/shlex"
	"github.com/sahilm/fuzzy"
	"github.com/sirupsen/logrus"

	"github/itish2003/pdfquery/models"
	"github/itish2003/pdfquery/services"
)

var shellCommands = []string{"upload", "query", "ask", "status", "help", "quit", "exit"}

const shellHelp = `Commands:
  upload <path>     upload a PDF (quote paths containing spaces)
  query <question>  ask a question about the uploaded PDF (alias: ask)
  status            show whether a PDF has been uploaded
  help              show this help
  quit              leave the shell (alias: exit)`

// ShellController drives a single upload gate from a line-oriented terminal.
type ShellController struct {
	gate   *services.UploadGate
	view   services.View
	in     io.Reader
	out    io.Writer
	logger logrus.FieldLogger
}

// NewShellController reads commands from in and writes prompts and plain
// output to out. Gate updates go through view.
func NewShellController(gate *services.UploadGate, view services.View, in io.Reader, out io.Writer, logger logrus.FieldLogger) *ShellController {
	return &ShellController{
		gate:   gate,
		view:   view,
		in:     in,
		out:    out,
		logger: logger,
	}
}

// Run processes commands until the input ends, quit is entered or ctx is
// cancelled.
func (s *ShellController) Run(ctx context.Context) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	fmt.Fprintln(s.out, `pdfquery shell. Type "help" for commands.`)
	for {
		fmt.Fprint(s.out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			if !s.dispatch(ctx, line) {
				return nil
			}
		}
	}
}

// dispatch runs one command line. It returns false when the shell should stop.
func (s *ShellController) dispatch(ctx context.Context, line string) bool {
	cmd, rest := splitCommand(line)
	switch cmd {
	case "":
	case "upload":
		s.upload(ctx, rest)
	case "query", "ask":
		_ = s.gate.Query(ctx, rest)
	case "status":
		fmt.Fprintf(s.out, "state: %s\n", s.gate.State())
	case "help":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit":
		return false
	default:
		s.view.Notify(unknownCommand(cmd))
	}
	return true
}

func (s *ShellController) upload(ctx context.Context, rest string) {
	args, err := shlex.Split(rest)
	if err != nil {
		s.view.Notify(fmt.Sprintf("could not parse arguments: %v", err))
		return
	}
	if len(args) > 1 {
		s.view.Notify("upload takes a single path")
		return
	}

	var file *models.FileSelection
	if len(args) == 1 {
		file, err = models.FileSelectionFromPath(args[0])
		if err != nil {
			s.logger.WithError(err).Debug("SHELL: Could not open file")
			s.view.Notify(fmt.Sprintf("cannot open %s: %v", args[0], err))
			return
		}
	}
	_ = s.gate.Upload(ctx, file)
}

// splitCommand separates the command word from the rest of the line. The
// rest is kept verbatim so questions keep their punctuation.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return strings.ToLower(line), ""
	}
	return strings.ToLower(line[:idx]), strings.TrimSpace(line[idx:])
}

func unknownCommand(cmd string) string {
	matches := fuzzy.Find(cmd, shellCommands)
	if len(matches) > 0 {
		return fmt.Sprintf("unknown command %q, did you mean %q?", cmd, matches[0].Str)
	}
	return fmt.Sprintf("unknown command %q, type \"help\" for commands", cmd)
}

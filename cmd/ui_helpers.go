package cmd

import (
	"io"
	"os"
	"strings"

	"querydesk/cli/internal/display"
	"querydesk/cli/internal/terminal"
	"querydesk/cli/internal/workbench"
)

// session bundles a workbench with the terminal renderer that draws it.
type session struct {
	wb     *workbench.Workbench
	term   *display.Terminal
	closer io.Closer
}

// newSession connects to the backend and builds a workbench rendering data to out and
// everything else to msgs. The spinner only runs when msgs is an interactive terminal.
func newSession(out, msgs *os.File, format display.Format) (*session, error) {
	api, closer, err := openBackend()
	if err != nil {
		return nil, err
	}
	term := display.NewTerminal(out, msgs, format, terminal.IsInteractive(msgs))
	wb := workbench.New(workbench.Options{
		API:      api,
		Renderer: term,
		Sink:     workbench.FileSink{Dir: cfg.DownloadDir},
		Logger:   log,
	})
	return &session{wb: wb, term: term, closer: closer}, nil
}

// Close stops rendering and releases the backend connection.
func (s *session) Close() {
	s.term.Close()
	if err := s.closer.Close(); err != nil {
		log.Debug("closing backend client failed", log.Args("error", err))
	}
}

func formatNames() string {
	names := make([]string, len(display.Formats))
	for i, f := range display.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

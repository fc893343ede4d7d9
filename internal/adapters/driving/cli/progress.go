package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// progressPrinter reports ingestion results as they happen. On a terminal
// the line is rewritten in place; otherwise one line per source is printed.
type progressPrinter struct {
	mu    sync.Mutex
	out   io.Writer
	tty   bool
	count int
}

var progress = &progressPrinter{out: io.Discard}

func (p *progressPrinter) reset(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = w
	p.tty = isTerminal(w)
	p.count = 0
}

func (p *progressPrinter) report(result domain.IngestResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	line := fmt.Sprintf("[%d] %s", p.count, describeResult(result, err))
	if p.tty && err == nil {
		fmt.Fprintf(p.out, "\r\033[K%s", line)
		return
	}
	if p.tty {
		fmt.Fprint(p.out, "\r\033[K")
	}
	fmt.Fprintln(p.out, line)
}

// finish ends a rewritten progress line.
func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty && p.count > 0 {
		fmt.Fprint(p.out, "\r\033[K")
	}
	p.count = 0
}

func describeResult(result domain.IngestResult, err error) string {
	name := result.SourceID
	if result.Title != "" {
		name = fmt.Sprintf("%s (%s)", result.SourceID, result.Title)
	}
	switch {
	case err != nil:
		return fmt.Sprintf("failed %s: %v", name, err)
	case result.Skipped != domain.SkipNone:
		return fmt.Sprintf("skipped %s: %s", name, result.Skipped)
	default:
		return fmt.Sprintf("ingested %s: %d chunks", name, result.Chunks)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

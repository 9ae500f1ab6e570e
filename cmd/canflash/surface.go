package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Markup tags produced by the process runner, rendered back to ANSI
// colors when stdout is a terminal.
var markupToANSI = strings.NewReplacer(
	"[red]", "\x1b[0;31m",
	"[bold red]", "\x1b[1;31m",
	"[green]", "\x1b[0;32m",
	"[bold green]", "\x1b[1;32m",
	"[yellow]", "\x1b[0;33m",
	"[bold yellow]", "\x1b[1;33m",
	"[blue]", "\x1b[0;34m",
	"[bold blue]", "\x1b[1;34m",
	"[magenta]", "\x1b[0;35m",
	"[cyan]", "\x1b[0;36m",
	"[bold]", "\x1b[1m",
	"[/]", "\x1b[0m",
)

var markupStrip = strings.NewReplacer(
	"[red]", "", "[bold red]", "",
	"[green]", "", "[bold green]", "",
	"[yellow]", "", "[bold yellow]", "",
	"[blue]", "", "[bold blue]", "",
	"[magenta]", "", "[cyan]", "",
	"[bold]", "", "[/]", "",
)

// consoleSurface renders sink flushes to stdout.
type consoleSurface struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

func newConsoleSurface() *consoleSurface {
	return &consoleSurface{
		out:   os.Stdout,
		color: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (s *consoleSurface) Print(text string) error {
	if s.color {
		text = markupToANSI.Replace(text)
	} else {
		text = markupStrip.Replace(text)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.out, text)
	return err
}

func (s *consoleSurface) Clear() {
	// Scrolling output; nothing to reset on a plain console.
}

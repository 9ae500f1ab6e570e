package shellproc

import (
	"regexp"
	"strings"
)

// Terminal escape codes emitted by idf.py and esptool, mapped to the
// markup tags the output sink understands.
var ansiReplacer = strings.NewReplacer(
	"\x1b[0;31m", "[red]",
	"\x1b[1;31m", "[bold red]",
	"\x1b[0;32m", "[green]",
	"\x1b[1;32m", "[bold green]",
	"\x1b[0;33m", "[yellow]",
	"\x1b[1;33m", "[bold yellow]",
	"\x1b[0;34m", "[blue]",
	"\x1b[1;34m", "[bold blue]",
	"\x1b[0;35m", "[magenta]",
	"\x1b[0;36m", "[cyan]",
	"\x1b[0m", "[/]",
	"\x1b[1m", "[bold]",
)

var residualAnsi = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// ConvertANSI rewrites known color escapes to markup tags and strips
// any escape sequence it does not recognize.
func ConvertANSI(line string) string {
	converted := ansiReplacer.Replace(line)
	if strings.ContainsRune(converted, '\x1b') {
		converted = residualAnsi.ReplaceAllString(converted, "")
	}
	return converted
}

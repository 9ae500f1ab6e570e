package shellproc

import "regexp"

// errorPatterns flag output lines that indicate failure even when the
// process itself keeps running or exits zero. Serial tools in
// particular print errors to stdout and exit clean.
var errorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)could not open port`),
	regexp.MustCompile(`(?i)No such file or directory`),
	regexp.MustCompile(`(?i)Permission denied`),
	regexp.MustCompile(`(?i)Device or resource busy`),
	regexp.MustCompile(`(?i)Connection refused`),
	regexp.MustCompile(`(?i)\bError:`),
	regexp.MustCompile(`(?i)\bFailed:`),
	regexp.MustCompile(`(?i)\bException:`),
	regexp.MustCompile(`(?i)Traceback`),
	regexp.MustCompile(`\[Errno \d+\]`),
	regexp.MustCompile(`(?i)command not found`),
	regexp.MustCompile(`(?i)bash:.*: No such file or directory`),
}

// MatchErrorPattern returns the pattern that matches line, or "".
func MatchErrorPattern(line string) string {
	for _, pattern := range errorPatterns {
		if pattern.MatchString(line) {
			return pattern.String()
		}
	}
	return ""
}

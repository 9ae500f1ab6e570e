// Package kconfig loads the project's option catalog from the subset of
// Kconfig syntax the firmware tree actually uses: named menus containing
// choice blocks of bool configs with optional depends-on clauses.
package kconfig

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"pkt.systems/canflash/schema"
	"pkt.systems/pslog"
)

var (
	menuPattern    = regexp.MustCompile(`^menu\s+"(.+)"$`)
	promptPattern  = regexp.MustCompile(`^prompt\s+"(.+)"`)
	configPattern  = regexp.MustCompile(`^config\s+([A-Za-z0-9_]+)$`)
	boolPattern    = regexp.MustCompile(`^bool\b(?:\s+"(.+)")?`)
	dependsPattern = regexp.MustCompile(`^depends\s+on\s+(.+)$`)
	symbolPattern  = regexp.MustCompile(`[A-Z0-9_]+`)
)

// Catalog holds the option tree parsed from a Kconfig file, grouped by
// the prompt of the choice menu each option belongs to.
type Catalog struct {
	path  string
	menus map[string]map[schema.OptionID]schema.Option
	order map[string][]schema.OptionID
}

// Load parses the Kconfig file at path, collecting choice options whose
// enclosing menu matches menuName. An empty menuName collects every choice.
func Load(path, menuName string, logger pslog.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open kconfig: %w", err)
	}
	defer func() { _ = f.Close() }()

	c := &Catalog{
		path:  path,
		menus: make(map[string]map[schema.OptionID]schema.Option),
		order: make(map[string][]schema.OptionID),
	}

	var menuStack []string
	var choicePrompt string
	var inChoice bool
	var current *schema.Option

	flush := func() {
		if current != nil && inChoice && choicePrompt != "" {
			c.add(choicePrompt, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case menuPattern.MatchString(line):
			flush()
			menuStack = append(menuStack, menuPattern.FindStringSubmatch(line)[1])
		case line == "endmenu":
			flush()
			if len(menuStack) > 0 {
				menuStack = menuStack[:len(menuStack)-1]
			}
		case line == "choice":
			flush()
			inChoice = true
			choicePrompt = ""
		case line == "endchoice":
			flush()
			inChoice = false
			choicePrompt = ""
		case configPattern.MatchString(line):
			flush()
			if !inChoice || !menuMatches(menuStack, menuName) {
				continue
			}
			id := configPattern.FindStringSubmatch(line)[1]
			current = &schema.Option{ID: schema.OptionID(id), DisplayName: id, Type: "bool"}
		case promptPattern.MatchString(line):
			prompt := promptPattern.FindStringSubmatch(line)[1]
			if current != nil {
				current.DisplayName = prompt
			} else if inChoice {
				choicePrompt = prompt
			}
		case boolPattern.MatchString(line):
			m := boolPattern.FindStringSubmatch(line)
			if current != nil {
				current.Type = "bool"
				if m[1] != "" {
					current.DisplayName = m[1]
				}
			}
		case dependsPattern.MatchString(line):
			if current != nil {
				expr := dependsPattern.FindStringSubmatch(line)[1]
				current.DependsOn = append(current.DependsOn, parseSymbols(expr)...)
			}
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read kconfig: %w", err)
	}

	if logger != nil {
		logger.Debug("kconfig catalog loaded", "path", path, "menus", len(c.menus), "options", len(c.AllOptions()))
	}
	return c, nil
}

func menuMatches(stack []string, want string) bool {
	if want == "" {
		return true
	}
	for _, name := range stack {
		if name == want {
			return true
		}
	}
	return false
}

func parseSymbols(expr string) []schema.OptionID {
	matches := symbolPattern.FindAllString(expr, -1)
	deps := make([]schema.OptionID, 0, len(matches))
	for _, m := range matches {
		deps = append(deps, schema.OptionID(m))
	}
	return deps
}

func (c *Catalog) add(menu string, option schema.Option) {
	if _, ok := c.menus[menu]; !ok {
		c.menus[menu] = make(map[schema.OptionID]schema.Option)
	}
	if _, ok := c.menus[menu][option.ID]; !ok {
		c.order[menu] = append(c.order[menu], option.ID)
	}
	c.menus[menu][option.ID] = option
}

// Menu returns the options of one choice menu in file order.
func (c *Catalog) Menu(name string) []schema.Option {
	ids := c.order[name]
	options := make([]schema.Option, 0, len(ids))
	for _, id := range ids {
		options = append(options, c.menus[name][id])
	}
	return options
}

// Option looks up one option by menu prompt and id.
func (c *Catalog) Option(menu string, id schema.OptionID) (schema.Option, bool) {
	options, ok := c.menus[menu]
	if !ok {
		return schema.Option{}, false
	}
	option, ok := options[id]
	return option, ok
}

// AllOptions returns every option across all menus.
func (c *Catalog) AllOptions() []schema.Option {
	var all []schema.Option
	for menu := range c.order {
		all = append(all, c.Menu(menu)...)
	}
	return all
}

// AllOptionIDs returns every option id across all menus.
func (c *Catalog) AllOptionIDs() []schema.OptionID {
	options := c.AllOptions()
	ids := make([]schema.OptionID, 0, len(options))
	for _, option := range options {
		ids = append(ids, option.ID)
	}
	return ids
}

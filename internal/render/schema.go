package render

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Slot names understood by Fields.
const (
	SlotApp     = "app"
	SlotCompany = "company"
	SlotEmail   = "email"
)

// quote matches a literal or entity-encoded double quote.
const quote = `(?:"|&quot;|&#34;|&#x22;)`

// DefaultEmailPattern matches any address in the template.
const DefaultEmailPattern = `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`

// Slot is a substitution site: the span between the Before and After
// anchors is replaced. Anchors are regular expression fragments matched
// case-insensitively, with . matching newlines.
type Slot struct {
	Name   string `yaml:"name"`
	Before string `yaml:"before"`
	After  string `yaml:"after"`
}

// Schema lists the substitution sites of a template.
type Schema struct {
	Slots []Slot `yaml:"slots"`
	// EmailPattern finds the addresses to replace. Empty uses DefaultEmailPattern.
	EmailPattern string `yaml:"email_pattern"`
}

// DefaultSchema returns the slots of the stock privacy policy template.
func DefaultSchema() Schema {
	return Schema{
		Slots: []Slot{
			{
				Name:   SlotApp,
				Before: `This privacy policy applies to\s+the\s+`,
				After:  `\s+app\s*\(hereby referred to as\s+` + quote + `Application` + quote + `\)`,
			},
			{
				Name:   SlotCompany,
				Before: `for mobile devices that was created by\s+`,
				After:  `\s+\(hereby referred to as\s+` + quote + `Service Provider` + quote + `\)`,
			},
		},
		EmailPattern: DefaultEmailPattern,
	}
}

// LoadSchema reads a YAML schema file. Slots it omits keep their defaults;
// slots with new names are appended.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, eris.Wrapf(err, "render: read schema %s", path)
	}

	var override Schema
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Schema{}, eris.Wrapf(err, "render: parse schema %s", path)
	}

	schema := DefaultSchema()
	for _, s := range override.Slots {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return Schema{}, eris.Errorf("render: schema %s has a slot without a name", path)
		}
		replaced := false
		for i := range schema.Slots {
			if schema.Slots[i].Name == s.Name {
				schema.Slots[i] = s
				replaced = true
			}
		}
		if !replaced {
			schema.Slots = append(schema.Slots, s)
		}
	}
	if override.EmailPattern != "" {
		schema.EmailPattern = override.EmailPattern
	}
	return schema, nil
}

type compiledSlot struct {
	Slot
	full   *regexp.Regexp
	before *regexp.Regexp
	after  *regexp.Regexp
}

func compileSlot(s Slot) (compiledSlot, error) {
	if s.Before == "" || s.After == "" {
		return compiledSlot{}, eris.Errorf("render: slot %q needs both anchors", s.Name)
	}
	full, err := regexp.Compile(`(?is)(?:` + s.Before + `)(?P<value>.+?)(?:` + s.After + `)`)
	if err != nil {
		return compiledSlot{}, eris.Wrapf(err, "render: compile slot %q", s.Name)
	}
	before, err := regexp.Compile(`(?is)` + s.Before)
	if err != nil {
		return compiledSlot{}, eris.Wrapf(err, "render: compile slot %q before anchor", s.Name)
	}
	after, err := regexp.Compile(`(?is)` + s.After)
	if err != nil {
		return compiledSlot{}, eris.Wrapf(err, "render: compile slot %q after anchor", s.Name)
	}
	return compiledSlot{Slot: s, full: full, before: before, after: after}, nil
}

package script

import (
	"strings"
)

// Arg is one key=value argument of a command statement. Order matters on
// the wire, so args are a slice rather than a map.
type Arg struct {
	Key   string
	Value string
}

// Line is either a comment or a command statement: a command path followed
// by an action and ordered key=value arguments.
type Line struct {
	Comment string // when set, the line renders as "# <Comment>"
	Path    string // e.g. "/interface bridge"
	Action  string // e.g. "add", "set"
	Args    []Arg
}

// Comment builds a comment line.
func Comment(text string) Line {
	return Line{Comment: text}
}

// Cmd builds a command line from alternating key, value strings.
func Cmd(path, action string, kv ...string) Line {
	args := make([]Arg, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		args = append(args, Arg{Key: kv[i], Value: kv[i+1]})
	}
	return Line{Path: path, Action: action, Args: args}
}

// Section is a titled group of lines.
type Section struct {
	Title string
	Lines []Line
}

// Script is the structured form of a device configuration script. A single
// renderer turns it into text; nothing concatenates script fragments by
// hand.
type Script struct {
	Sections []Section
}

// Add appends a section.
func (s *Script) Add(sec Section) {
	s.Sections = append(s.Sections, sec)
}

// Render produces the line-oriented script text. Values containing spaces
// are double-quoted; comments are '#'-prefixed.
func Render(s *Script) string {
	var b strings.Builder
	for i, sec := range s.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		if sec.Title != "" {
			b.WriteString("# ")
			b.WriteString(sec.Title)
			b.WriteString("\n")
		}
		for _, line := range sec.Lines {
			b.WriteString(renderLine(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderLine(l Line) string {
	if l.Comment != "" {
		return "# " + l.Comment
	}
	var b strings.Builder
	b.WriteString(l.Path)
	if l.Action != "" {
		b.WriteString(" ")
		b.WriteString(l.Action)
	}
	for _, a := range l.Args {
		b.WriteString(" ")
		b.WriteString(a.Key)
		b.WriteString("=")
		b.WriteString(quoteValue(a.Value))
	}
	return b.String()
}

func quoteValue(v string) string {
	if strings.ContainsAny(v, " \t") {
		return `"` + v + `"`
	}
	return v
}

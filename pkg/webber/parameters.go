package webber

import (
	"strconv"
	"strings"
)

const (
	ParamTitle  = "title"
	ParamWidth  = "width"
	ParamHeight = "height"
)

// Parameters is the named and positional configuration handed to the
// presentation side: named values such as the window title, positional
// values are target URLs.
type Parameters struct {
	Named   map[string]string
	Unnamed []string
}

func NewParameters(named map[string]string, unnamed []string) Parameters {
	if named == nil {
		named = make(map[string]string)
	}
	return Parameters{Named: named, Unnamed: unnamed}
}

// ParseParameters splits raw arguments into --name=value pairs and
// positional values. Later pairs override earlier ones.
func ParseParameters(raw []string) Parameters {
	params := NewParameters(nil, nil)
	for _, arg := range raw {
		if strings.HasPrefix(arg, "--") {
			if name, value, ok := strings.Cut(arg[2:], "="); ok && name != "" {
				params.Named[name] = value
				continue
			}
		}
		params.Unnamed = append(params.Unnamed, arg)
	}
	return params
}

// String returns the named value, or def if it is not set
func (p Parameters) String(name, def string) string {
	if value, ok := p.Named[name]; ok {
		return value
	}
	return def
}

// Float returns the named value as a number, or def if it is not set or
// does not parse
func (p Parameters) Float(name string, def float64) float64 {
	value, ok := p.Named[name]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return def
	}
	return f
}

// With returns a copy with name set to value
func (p Parameters) With(name, value string) Parameters {
	named := make(map[string]string, len(p.Named)+1)
	for k, v := range p.Named {
		named[k] = v
	}
	named[name] = value
	return Parameters{Named: named, Unnamed: p.Unnamed}
}

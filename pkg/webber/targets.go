package webber

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultURL    = "http://localhost:0"
	DefaultTitle  = "Webber"
	DefaultWidth  = 800
	DefaultHeight = 800
)

// Target is one page to show once the server is up
type Target struct {
	URL    string
	Title  string
	Width  float64
	Height float64
}

// ResolveTargets builds one target per positional URL, or one for
// DefaultURL, with port 0 replaced by the discovered port.
func ResolveTargets(params Parameters, port int) []Target {
	urls := params.Unnamed
	if len(urls) == 0 {
		urls = []string{DefaultURL}
	}

	title := params.String(ParamTitle, DefaultTitle)
	width := params.Float(ParamWidth, DefaultWidth)
	height := params.Float(ParamHeight, DefaultHeight)

	targets := make([]Target, 0, len(urls))
	for _, raw := range urls {
		targets = append(targets, Target{
			URL:    SubstitutePort(raw, port),
			Title:  title,
			Width:  width,
			Height: height,
		})
	}
	return targets
}

// SubstitutePort replaces a zero port in rawURL with port. URLs that do not
// parse fall back to replacing every ":0".
func SubstitutePort(rawURL string, port int) string {
	portText := strconv.Itoa(port)

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ReplaceAll(rawURL, ":0", ":"+portText)
	}
	if u.Port() != "0" {
		return rawURL
	}

	u.Host = strings.TrimSuffix(u.Host, ":0") + ":" + portText
	return u.String()
}

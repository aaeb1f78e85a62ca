package webserver

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/core-tools/hsu-webber/pkg/logging"
)

// Tomcat logs this once the auto-port HTTP connector is bound
var portPattern = regexp.MustCompile(`\["http\-bio\-.*auto\-\d\-(\d+)"\]`)

// OutputPublisher receives what the reader extracts from server output
type OutputPublisher interface {
	PublishStarted(port int)
	PublishMessage(line string)
}

// MatchPort extracts the announced port from a server output line
func MatchPort(line string) (int, bool) {
	match := portPattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	port, err := strconv.Atoi(match[1])
	if err != nil || port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}

// OutputReader turns the combined server output into Started and Message
// notifications. One reader serves exactly one process run.
type OutputReader struct {
	publisher OutputPublisher
	logger    logging.Logger
	port      atomic.Int32
	lines     atomic.Int64
}

func NewOutputReader(publisher OutputPublisher, logger logging.Logger) *OutputReader {
	return &OutputReader{
		publisher: publisher,
		logger:    logger,
	}
}

// Run reads until end of stream or a read error, both of which end it
// quietly: a closed stream is how process exit shows up here.
func (r *OutputReader) Run(stream io.Reader) {
	reader := bufio.NewReader(stream)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			r.handleLine(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if err != io.EOF {
				r.logger.Debugf("Output stream closed, lines: %d, error: %v", r.lines.Load(), err)
			} else {
				r.logger.Debugf("Output stream ended, lines: %d", r.lines.Load())
			}
			return
		}
	}
}

// Port returns the discovered port, or 0 while still awaiting it
func (r *OutputReader) Port() int {
	return int(r.port.Load())
}

func (r *OutputReader) handleLine(line string) {
	r.lines.Add(1)

	if r.port.Load() == 0 {
		if port, ok := MatchPort(line); ok {
			r.port.Store(int32(port))
			r.logger.Infof("Server port discovered, port: %d", port)
			r.publisher.PublishStarted(port)
		}
	}

	r.publisher.PublishMessage(line)
}

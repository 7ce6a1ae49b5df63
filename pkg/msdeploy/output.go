package msdeploy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/variantdev/webdeploy/pkg/deployengine"
)

var levelPrefixes = []struct {
	prefix string
	level  deployengine.TraceLevel
}{
	{"Error:", deployengine.TraceError},
	{"Warning:", deployengine.TraceWarning},
	{"Info:", deployengine.TraceInfo},
	{"Verbose:", deployengine.TraceVerbose},
}

// parseLine turns one line of msdeploy output into a trace event.
// Lines without a level prefix are Info on stdout and Error on stderr.
func parseLine(line string, stderr bool) deployengine.TraceEvent {
	for _, p := range levelPrefixes {
		if strings.HasPrefix(line, p.prefix) {
			return deployengine.TraceEvent{Level: p.level, Message: strings.TrimSpace(line[len(p.prefix):])}
		}
	}

	level := deployengine.TraceInfo
	if stderr {
		level = deployengine.TraceError
	}

	return deployengine.TraceEvent{Level: level, Message: strings.TrimSpace(line)}
}

var summaryRegex = regexp.MustCompile(`^Total changes: \d+ \((\d+) added, (\d+) deleted, (\d+) updated, (\d+) parameters changed, (\d+) bytes copied\)`)

func parseSummary(line string) (*deployengine.ChangeSummary, bool) {
	m := summaryRegex.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, false
	}

	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}

	bytes, _ := strconv.ParseInt(m[5], 10, 64)

	return &deployengine.ChangeSummary{
		ObjectsAdded:     atoi(m[1]),
		ObjectsDeleted:   atoi(m[2]),
		ObjectsUpdated:   atoi(m[3]),
		ParameterChanges: atoi(m[4]),
		BytesCopied:      bytes,
	}, true
}

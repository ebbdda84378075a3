package labels

import (
	"bytes"
	"strings"
)

const lineSeparator = "\n"

// PodLabel builds the identity labels injected into every sample of a pod.
// Values are not escaped: pod names and IPs are already label-safe in practice.
func PodLabel(name, ip string) string {
	return `podname="` + name + `",podip="` + ip + `"`
}

// InjectLabels adds label to every sample line of an exposition-format payload.
// A line with a label set gains "label," right after its first brace; a bare
// line gains "{label}" before its first space. Comment lines and lines with
// neither are returned unchanged. Output has exactly as many lines as input.
func InjectLabels(lines []string, label string) []string {
	out := make([]string, len(lines))

	for i, line := range lines {
		out[i] = injectLine(line, label)
	}

	return out
}

// Rewrite splits payload into lines, injects label and joins them back.
func Rewrite(payload []byte, label string) []byte {
	if len(payload) == 0 {
		return nil
	}

	lines := strings.Split(string(payload), lineSeparator)

	var buf bytes.Buffer

	buf.Grow(len(payload) + len(lines)*(len(label)+3))

	for i, line := range InjectLabels(lines, label) {
		if i > 0 {
			buf.WriteString(lineSeparator)
		}

		buf.WriteString(line)
	}

	return buf.Bytes()
}

func injectLine(line, label string) string {
	if strings.HasPrefix(line, "#") {
		return line
	}

	if idx := strings.Index(line, "{"); idx > 0 {
		return line[:idx+1] + label + "," + line[idx+1:]
	}

	if idx := strings.Index(line, " "); idx > 0 {
		return line[:idx] + "{" + label + "}" + line[idx:]
	}

	return line
}

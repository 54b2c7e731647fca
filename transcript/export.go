package transcript

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sprocket78/ai-battle-app/core"
)

// TimeLayout is the timestamp format used in exports.
const TimeLayout = "2006-01-02 15:04:05"

const (
	headerPrefix = "User Query: "
	indent       = "    "
	initialLabel = "Initial"
)

var blockHeader = regexp.MustCompile(`^\[([^\]]+)\] (Initial|Round (\d+)) ([^:]+): (.*)$`)

// Entry is one parsed exchange block.
type Entry struct {
	Timestamp time.Time
	Speaker   string
	Round     int
	Content   string
}

// Document is the parsed form of an export.
type Document struct {
	Prompt  string
	Entries []Entry
}

// Export renders the transcript in the flat text format.
func (t *Transcript) Export() string {
	return Render(t.prompt, t.Exchanges())
}

// Render produces the export text for prompt and exchanges.
func Render(prompt string, exchanges []core.Exchange) string {
	var sb strings.Builder
	sb.WriteString(headerPrefix)
	writeIndented(&sb, prompt)
	sb.WriteString("\n")

	for _, ex := range exchanges {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "[%s] %s %s: ", ex.Timestamp.Format(TimeLayout), roundLabel(ex.Round), speakerName(ex))
		writeIndented(&sb, ex.Content())
		sb.WriteString("\n")
	}
	return sb.String()
}

func roundLabel(round int) string {
	if round == 0 {
		return initialLabel
	}
	return "Round " + strconv.Itoa(round)
}

func speakerName(ex core.Exchange) string {
	name := ex.Speaker
	if name == "" {
		name = string(ex.Side)
	}
	name = strings.NewReplacer(":", "-", "\n", " ", "\r", " ").Replace(name)
	return strings.TrimSpace(name)
}

// writeIndented writes s with every line after the first prefixed by indent.
func writeIndented(sb *strings.Builder, s string) {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("\n")
			sb.WriteString(indent)
		}
		sb.WriteString(line)
	}
}

// Parse recovers the prompt and the ordered entries from an export.
func Parse(text string) (*Document, error) {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(scanLF)

	doc := &Document{}
	var (
		current *strings.Builder
		entry   *Entry
		lineNo  int
		gotHead bool
	)

	flush := func() {
		if entry != nil {
			entry.Content = current.String()
			doc.Entries = append(doc.Entries, *entry)
			entry = nil
		}
	}

	for sc.Scan() {
		lineNo++
		line := sc.Text()

		if !gotHead {
			if !strings.HasPrefix(line, headerPrefix) {
				return nil, fmt.Errorf("transcript: line %d: missing %q header", lineNo, strings.TrimSpace(headerPrefix))
			}
			gotHead = true
			current = &strings.Builder{}
			current.WriteString(strings.TrimPrefix(line, headerPrefix))
			continue
		}

		switch {
		case strings.HasPrefix(line, indent):
			if current == nil {
				return nil, fmt.Errorf("transcript: line %d: continuation outside a block", lineNo)
			}
			current.WriteString("\n")
			current.WriteString(strings.TrimPrefix(line, indent))
		case line == "":
			if entry == nil && current != nil {
				doc.Prompt = current.String()
			}
			flush()
			current = nil
		default:
			m := blockHeader.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("transcript: line %d: unrecognized line %q", lineNo, line)
			}
			flush()
			ts, err := time.ParseInLocation(TimeLayout, m[1], time.Local)
			if err != nil {
				return nil, fmt.Errorf("transcript: line %d: bad timestamp: %w", lineNo, err)
			}
			round := 0
			if m[2] != initialLabel {
				round, err = strconv.Atoi(m[3])
				if err != nil {
					return nil, fmt.Errorf("transcript: line %d: bad round: %w", lineNo, err)
				}
			}
			entry = &Entry{Timestamp: ts, Speaker: m[4], Round: round}
			current = &strings.Builder{}
			current.WriteString(m[5])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	if !gotHead {
		return nil, fmt.Errorf("transcript: empty export")
	}
	if entry == nil && current != nil && len(doc.Entries) == 0 {
		doc.Prompt = current.String()
	}
	flush()
	return doc, nil
}

// scanLF splits on '\n' only. Unlike bufio.ScanLines it keeps a trailing
// '\r', which belongs to the content.
func scanLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

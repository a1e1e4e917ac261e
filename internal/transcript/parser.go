package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultSpeakerLabel    = "Speaker"
	DefaultSegmentEstimate = 30
)

// Grammar selects the timestamp notation the model is asked to produce.
type Grammar string

const (
	GrammarMinutesSeconds      Grammar = "mm:ss"
	GrammarHoursMinutesSeconds Grammar = "hh:mm:ss"
)

// MaxMinutesSecondsSpan is the first offset mm:ss can no longer express with
// two minute digits. Chunks under this grammar must stay shorter.
const MaxMinutesSecondsSpan = 100 * 60

func ParseGrammar(s string) (Grammar, error) {
	switch Grammar(strings.ToLower(strings.TrimSpace(s))) {
	case GrammarMinutesSeconds:
		return GrammarMinutesSeconds, nil
	case GrammarHoursMinutesSeconds, "":
		return GrammarHoursMinutesSeconds, nil
	default:
		return "", fmt.Errorf("unknown timestamp grammar %q", s)
	}
}

// FormatTimestamp renders seconds in the grammar's notation, without brackets.
func (g Grammar) FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	if g == GrammarMinutesSeconds {
		return fmt.Sprintf("%02d:%02d", total/60, total%60)
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func (g Grammar) pattern() *regexp.Regexp {
	if g == GrammarMinutesSeconds {
		return regexp.MustCompile(`\[?(\d{1,2}):(\d{2})\]?`)
	}
	return regexp.MustCompile(`\[?(\d{1,2}):(\d{2}):(\d{2})\]?`)
}

type ParserConfig struct {
	Grammar         Grammar
	SpeakerLabel    string
	SegmentEstimate float64
}

// Parser turns a model reply into offset-corrected segments.
// Every segment is given the same fixed duration estimate.
type Parser struct {
	timestamp *regexp.Regexp
	speaker   *regexp.Regexp
	estimate  float64
}

func NewParser(cfg ParserConfig) *Parser {
	label := strings.TrimSpace(cfg.SpeakerLabel)
	if label == "" {
		label = DefaultSpeakerLabel
	}
	estimate := cfg.SegmentEstimate
	if estimate <= 0 {
		estimate = DefaultSegmentEstimate
	}
	grammar := cfg.Grammar
	if grammar == "" {
		grammar = GrammarHoursMinutesSeconds
	}
	return &Parser{
		timestamp: grammar.pattern(),
		speaker:   regexp.MustCompile(`\[(` + regexp.QuoteMeta(label) + ` \d+)\]`),
		estimate:  estimate,
	}
}

type parseState struct {
	offset      float64
	currentTime float64
	lastStart   float64
	speaker     string
	text        string
	segments    []Segment
}

func (p *Parser) Parse(raw string, offset float64) []Segment {
	if offset < 0 {
		offset = 0
	}
	st := &parseState{offset: offset, currentTime: offset, lastStart: offset}
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.scanLine(st, line)
	}
	p.flush(st)
	return st.segments
}

func (p *Parser) scanLine(st *parseState, line string) {
	if m := p.timestamp.FindStringSubmatchIndex(line); m != nil {
		p.flush(st)
		st.currentTime = st.offset + timestampSeconds(line, m)
		if st.currentTime < st.lastStart {
			st.currentTime = st.lastStart
		}
		st.speaker = ""
		rest := strings.TrimSpace(line[:m[0]] + line[m[1]:])
		if sm := p.speaker.FindStringSubmatchIndex(rest); sm != nil {
			st.speaker = rest[sm[2]:sm[3]]
			rest = strings.TrimSpace(rest[:sm[0]] + rest[sm[1]:])
		}
		st.text = rest
		return
	}
	if sm := p.speaker.FindStringSubmatchIndex(line); sm != nil {
		st.speaker = line[sm[2]:sm[3]]
		st.text += " " + strings.TrimSpace(line[:sm[0]]+line[sm[1]:])
		return
	}
	st.text += " " + strings.TrimSpace(line)
}

func (p *Parser) flush(st *parseState) {
	text := strings.TrimSpace(st.text)
	if text == "" {
		return
	}
	st.segments = append(st.segments, Segment{
		ID:        segmentID(len(st.segments)),
		StartTime: st.currentTime,
		EndTime:   st.currentTime + p.estimate,
		Text:      text,
		Speaker:   st.speaker,
	})
	st.lastStart = st.currentTime
	st.text = ""
}

// timestampSeconds sums the captured groups, least significant last.
func timestampSeconds(line string, m []int) float64 {
	var total int
	for g := 1; g*2+1 < len(m); g++ {
		v, _ := strconv.Atoi(line[m[g*2]:m[g*2+1]])
		total = total*60 + v
	}
	return float64(total)
}

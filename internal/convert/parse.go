package convert

import (
	"regexp"
	"strings"
)

const (
	bullet = "●"
	// segmentMarker opens every field of a block.
	segmentMarker = bullet + "\n"

	labelName   = "Medication Name: "
	labelDosage = "Dosage: "
)

// timeLabels are the optional slots in the order a block may carry them.
var timeLabels = [...]string{
	"Suggested Time: ",
	"Noon Suggested Time: ",
	"Evening Suggested Time: ",
}

var (
	timeValueRe = regexp.MustCompile(`^(\d+:\d+ [AP]M)\n`)
	timeTokenRe = regexp.MustCompile(`^\d+:\d+ [AP]M$`)
)

type parseState int

const (
	awaitName parseState = iota
	awaitDosage
	awaitTimes
)

type blockParser struct {
	state    parseState
	cur      Record
	nextSlot int
	out      []Record
}

// ParsePrescription scans extracted prescription text for medication blocks:
//
//	●
//	Medication Name: <name>
//	●
//	Dosage: <dosage>
//	●
//	Suggested Time: 8:00 AM          (optional)
//	●
//	Noon Suggested Time: 1:00 PM     (optional)
//	●
//	Evening Suggested Time: 8:00 PM  (optional)
//
// Blocks that do not fit are skipped; text without any block yields no records.
func ParsePrescription(text string) []Record {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	segs := strings.Split(text, segmentMarker)
	p := &blockParser{}
	// segs[0] is whatever precedes the first marker
	for _, seg := range segs[1:] {
		p.feed(seg)
	}
	p.finish()
	return p.out
}

func (p *blockParser) feed(seg string) {
	switch p.state {
	case awaitName:
		p.start(seg)
	case awaitDosage:
		value, ok := strings.CutPrefix(seg, labelDosage)
		if !ok {
			p.reset()
			p.start(seg)
			return
		}
		line, rest, found := strings.Cut(value, "\n")
		if !found {
			p.reset()
			return
		}
		p.cur.Dosage = strings.TrimSpace(line)
		if rest != "" {
			p.emit()
			return
		}
		p.state = awaitTimes
	case awaitTimes:
		if p.acceptTime(seg) {
			return
		}
		p.emit()
		p.start(seg)
	}
}

func (p *blockParser) start(seg string) {
	value, ok := strings.CutPrefix(seg, labelName)
	if !ok || !strings.HasSuffix(value, "\n") {
		return
	}
	p.cur = Record{Name: strings.TrimSpace(value)}
	p.state = awaitDosage
}

// acceptTime takes seg as the closest remaining time slot. Trailing text after
// the time, or the last slot being filled, closes the block.
func (p *blockParser) acceptTime(seg string) bool {
	for k := p.nextSlot; k < len(timeLabels); k++ {
		value, ok := strings.CutPrefix(seg, timeLabels[k])
		if !ok {
			continue
		}
		m := timeValueRe.FindStringSubmatch(value)
		if m == nil {
			return false
		}
		p.cur.SuggestedTimes = append(p.cur.SuggestedTimes, m[1])
		p.nextSlot = k + 1
		if len(value) > len(m[0]) || p.nextSlot == len(timeLabels) {
			p.emit()
		}
		return true
	}
	return false
}

func (p *blockParser) emit() {
	rec := p.cur
	rec.SuggestedTimes = cleanTimes(rec.SuggestedTimes)
	if rec.Name != "" {
		p.out = append(p.out, rec)
	}
	p.reset()
}

func (p *blockParser) finish() {
	if p.state == awaitTimes {
		p.emit()
	}
	p.reset()
}

func (p *blockParser) reset() {
	p.state = awaitName
	p.cur = Record{}
	p.nextSlot = 0
}

func cleanTimes(times []string) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		if t == "" || strings.Contains(t, bullet) {
			continue
		}
		out = append(out, t)
	}
	return out
}

package convert

import "strings"

// fromMedications applies the parser's record invariants to model output:
// trimmed non-empty names, well-formed times only, at most one per slot.
func fromMedications(meds []Medication) []Record {
	var out []Record
	for _, m := range meds {
		name := strings.TrimSpace(m.Name)
		if name == "" || strings.Contains(name, bullet) {
			continue
		}
		times := make([]string, 0, len(timeLabels))
		for _, t := range m.Times {
			t = strings.Join(strings.Fields(t), " ")
			if !timeTokenRe.MatchString(t) {
				continue
			}
			times = append(times, t)
			if len(times) == len(timeLabels) {
				break
			}
		}
		out = append(out, Record{
			Name:           name,
			Dosage:         strings.TrimSpace(m.Dosage),
			SuggestedTimes: times,
		})
	}
	return out
}

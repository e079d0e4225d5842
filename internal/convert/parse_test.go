package convert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(name, dosage string, slots ...string) string {
	var b strings.Builder
	b.WriteString("●\nMedication Name: " + name + "\n")
	b.WriteString("●\nDosage: " + dosage + "\n")
	for _, s := range slots {
		b.WriteString("●\n" + s + "\n")
	}
	return b.String()
}

func TestParsePrescription(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Record
	}{
		{
			name: "single block with morning time",
			text: "●\nMedication Name: Aspirin\n●\nDosage: 100mg\n●\nSuggested Time: 8:00 AM\n",
			want: []Record{{Name: "Aspirin", Dosage: "100mg", SuggestedTimes: []string{"8:00 AM"}}},
		},
		{
			name: "second block without times",
			text: block("Aspirin", "100mg", "Suggested Time: 8:00 AM") + block("Vitamin D", "1000 IU"),
			want: []Record{
				{Name: "Aspirin", Dosage: "100mg", SuggestedTimes: []string{"8:00 AM"}},
				{Name: "Vitamin D", Dosage: "1000 IU", SuggestedTimes: []string{}},
			},
		},
		{
			name: "all three slots",
			text: block("Metformin", "500mg",
				"Suggested Time: 7:30 AM",
				"Noon Suggested Time: 12:30 PM",
				"Evening Suggested Time: 7:30 PM"),
			want: []Record{{Name: "Metformin", Dosage: "500mg", SuggestedTimes: []string{"7:30 AM", "12:30 PM", "7:30 PM"}}},
		},
		{
			name: "noon and evening only",
			text: block("Ibuprofen", "200mg", "Noon Suggested Time: 1:00 PM", "Evening Suggested Time: 9:00 PM"),
			want: []Record{{Name: "Ibuprofen", Dosage: "200mg", SuggestedTimes: []string{"1:00 PM", "9:00 PM"}}},
		},
		{
			name: "evening only",
			text: block("Melatonin", "3mg", "Evening Suggested Time: 10:00 PM"),
			want: []Record{{Name: "Melatonin", Dosage: "3mg", SuggestedTimes: []string{"10:00 PM"}}},
		},
		{
			name: "fields are trimmed",
			text: "●\nMedication Name:   Aspirin  \n●\nDosage:  100mg \n",
			want: []Record{{Name: "Aspirin", Dosage: "100mg", SuggestedTimes: []string{}}},
		},
		{
			name: "block missing dosage is skipped",
			text: "●\nMedication Name: Lost\n" + block("Kept", "5mg"),
			want: []Record{{Name: "Kept", Dosage: "5mg", SuggestedTimes: []string{}}},
		},
		{
			name: "duplicates are preserved",
			text: block("Aspirin", "100mg") + block("Aspirin", "100mg"),
			want: []Record{
				{Name: "Aspirin", Dosage: "100mg", SuggestedTimes: []string{}},
				{Name: "Aspirin", Dosage: "100mg", SuggestedTimes: []string{}},
			},
		},
		{
			name: "text around blocks is ignored",
			text: "Dr. Smith\nPrescription\n" + block("Aspirin", "100mg", "Suggested Time: 8:00 AM") + "Signature\n",
			want: []Record{{Name: "Aspirin", Dosage: "100mg", SuggestedTimes: []string{"8:00 AM"}}},
		},
		{
			name: "repeated label closes the block at the first one",
			text: block("Aspirin", "100mg", "Suggested Time: 8:00 AM", "Suggested Time: 9:00 AM"),
			want: []Record{{Name: "Aspirin", Dosage: "100mg", SuggestedTimes: []string{"8:00 AM"}}},
		},
		{
			name: "malformed time ends the block",
			text: block("Aspirin", "100mg", "Suggested Time: morning", "Noon Suggested Time: 1:00 PM"),
			want: []Record{{Name: "Aspirin", Dosage: "100mg", SuggestedTimes: []string{}}},
		},
		{
			name: "slots out of order keep the earlier one",
			text: block("Aspirin", "100mg", "Evening Suggested Time: 8:00 PM", "Suggested Time: 8:00 AM"),
			want: []Record{{Name: "Aspirin", Dosage: "100mg", SuggestedTimes: []string{"8:00 PM"}}},
		},
		{
			name: "extra dosage lines drop the times",
			text: "●\nMedication Name: Aspirin\n●\nDosage: 100mg\nwith food\n●\nSuggested Time: 8:00 AM\n",
			want: []Record{{Name: "Aspirin", Dosage: "100mg", SuggestedTimes: []string{}}},
		},
		{
			name: "dosage without newline at end of text",
			text: "●\nMedication Name: Aspirin\n●\nDosage: 100mg",
			want: nil,
		},
		{
			name: "empty name is skipped",
			text: block(" ", "100mg"),
			want: nil,
		},
		{
			name: "windows line endings",
			text: "●\r\nMedication Name: Aspirin\r\n●\r\nDosage: 100mg\r\n●\r\nSuggested Time: 8:00 AM\r\n",
			want: []Record{{Name: "Aspirin", Dosage: "100mg", SuggestedTimes: []string{"8:00 AM"}}},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
		{
			name: "no blocks",
			text: "Take two tablets daily.\nRefills: 0\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrescription(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePrescriptionTimesAfterTrailingText(t *testing.T) {
	text := block("Aspirin", "100mg", "Suggested Time: 8:00 AM\nfooter") + block("Zinc", "50mg", "Noon Suggested Time: 12:00 PM")
	got := ParsePrescription(text)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"8:00 AM"}, got[0].SuggestedTimes)
	assert.Equal(t, "Zinc", got[1].Name)
	assert.Equal(t, []string{"12:00 PM"}, got[1].SuggestedTimes)
}

func TestParsePrescriptionNeverPanics(t *testing.T) {
	inputs := []string{
		"●", "●\n", "●\n●\n●\n", "●\nMedication Name: ", "●\nMedication Name: x\n●\n",
		"●\nDosage: 1\n●\nSuggested Time: 8:00 AM\n", strings.Repeat("●\nMedication Name: a\n", 50),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { ParsePrescription(in) }, "input %q", in)
	}
}

func TestParsePrescriptionTimesNeverCarryBullet(t *testing.T) {
	text := block("A", "1", "Suggested Time: 8:00 AM", "Noon Suggested Time: 12:00 PM") + block("B", "2")
	for _, r := range ParsePrescription(text) {
		for _, tm := range r.SuggestedTimes {
			assert.NotEmpty(t, tm)
			assert.NotContains(t, tm, bullet)
		}
	}
}

func TestCleanTimes(t *testing.T) {
	assert.Equal(t, []string{"8:00 AM"}, cleanTimes([]string{"", "●8:00 PM", "8:00 AM"}))
	assert.Equal(t, []string{}, cleanTimes(nil))
}

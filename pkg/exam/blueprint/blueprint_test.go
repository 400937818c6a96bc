package blueprint

import (
	"testing"

	"examcraft-be/pkg/exam/qschema"
)

func TestDefaultIsValid(t *testing.T) {
	d := Default()
	if err := d.Validate(); err != nil {
		t.Fatalf("default blueprint should validate, got %v", err)
	}
	if got := d.QuestionCount(); got != 47 {
		t.Errorf("default blueprint should expand to 47 questions, got %d", got)
	}
}

func TestSlotsNumberingAndCycling(t *testing.T) {
	d := Definition{
		Title:      "Mini Paper",
		TotalMarks: 16,
		Units:      []string{"1", "2"},
		Parts: []Part{
			{
				Name: "I",
				Sections: []Section{
					{Name: "vocab", Type: qschema.TypeMCQ, Count: 4, Marks: 1, TopicCycle: []string{"synonym", "antonym"}},
				},
			},
			{
				Name: "II",
				Sections: []Section{
					{Name: "prose", Type: qschema.TypeShort, Count: 3, Marks: 4, Topic: "prose", UseUnits: true},
				},
			},
		},
	}

	slots := d.Slots()
	if len(slots) != 7 {
		t.Fatalf("expected 7 slots, got %d", len(slots))
	}

	for i, s := range slots {
		if s.Number != i+1 {
			t.Errorf("slot %d numbered %d, numbering must be sequential", i, s.Number)
		}
	}

	// Topic cycle wraps around within the section.
	wantTopics := []string{"synonym", "antonym", "synonym", "antonym"}
	for i, want := range wantTopics {
		if slots[i].Topic != want {
			t.Errorf("slot %d topic = %q, want %q", i+1, slots[i].Topic, want)
		}
	}

	// Unit rotation wraps across the unit list.
	wantUnits := []string{"1", "2", "1"}
	for i, want := range wantUnits {
		got := slots[4+i]
		if got.Unit != want {
			t.Errorf("slot %d unit = %q, want %q", got.Number, got.Unit, want)
		}
		if got.Part != "II" || got.Section != "prose" {
			t.Errorf("slot %d placed in %s/%s, want II/prose", got.Number, got.Part, got.Section)
		}
	}

	// Sections without UseUnits never get a unit.
	for _, s := range slots[:4] {
		if s.Unit != "" {
			t.Errorf("slot %d should have no unit, got %q", s.Number, s.Unit)
		}
	}
}

func TestValidate(t *testing.T) {
	base := func() Definition {
		return Definition{
			Title:      "T",
			TotalMarks: 10,
			Parts: []Part{
				{Name: "I", Sections: []Section{
					{Name: "a", Type: qschema.TypeShort, Count: 5, Marks: 2},
				}},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Definition)
		ok     bool
	}{
		{"valid", func(d *Definition) {}, true},
		{"no parts", func(d *Definition) { d.Parts = nil }, false},
		{"empty part", func(d *Definition) { d.Parts[0].Sections = nil }, false},
		{"zero count", func(d *Definition) { d.Parts[0].Sections[0].Count = 0 }, false},
		{"zero marks", func(d *Definition) { d.Parts[0].Sections[0].Marks = 0 }, false},
		{"unknown type", func(d *Definition) { d.Parts[0].Sections[0].Type = "riddle" }, false},
		{"choose over count", func(d *Definition) { d.Parts[0].Sections[0].Choose = 6 }, false},
		{"marks mismatch", func(d *Definition) { d.TotalMarks = 11 }, false},
		{"choose caps marks", func(d *Definition) {
			d.Parts[0].Sections[0].Choose = 3
			d.TotalMarks = 6
		}, true},
	}

	for _, tt := range tests {
		d := base()
		tt.mutate(&d)
		err := d.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestSectionQuota(t *testing.T) {
	d := Default()
	if got := d.SectionQuota("II", "grammar"); got != 4 {
		t.Errorf("II/grammar quota = %d, want 4", got)
	}
	if got := d.SectionQuota("I", "vocabulary"); got != 0 {
		t.Errorf("I/vocabulary quota = %d, want 0 (every answer counts)", got)
	}
	if got := d.SectionQuota("X", "missing"); got != 0 {
		t.Errorf("unknown section quota = %d, want 0", got)
	}
}

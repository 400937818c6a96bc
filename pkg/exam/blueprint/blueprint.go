// FILE: pkg/exam/blueprint/blueprint.go
package blueprint

import (
	"fmt"

	"examcraft-be/pkg/exam/qschema"
)

// Section is a run of same-shaped questions inside a part. Choose > 0 means
// "answer any Choose of Count" and caps the marks the section can contribute.
type Section struct {
	Name       string               `json:"name"`
	Type       qschema.QuestionType `json:"type"`
	Count      int                  `json:"count"`
	Choose     int                  `json:"choose,omitempty"`
	Marks      int                  `json:"marks"`
	Topic      string               `json:"topic,omitempty"`
	TopicCycle []string             `json:"topic_cycle,omitempty"`
	UseUnits   bool                 `json:"use_units,omitempty"`
}

type Part struct {
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Definition is the exam blueprint: the fixed structure every generated
// paper follows. Stored as JSONB; the seeded default models the 100-mark
// three-hour board paper.
type Definition struct {
	Title           string   `json:"title"`
	TotalMarks      int      `json:"total_marks"`
	DurationMinutes int      `json:"duration_minutes"`
	Units           []string `json:"units,omitempty"`
	Parts           []Part   `json:"parts"`
}

// Slot is one question to generate: the unit of work for the generation
// orchestrator. Numbering is sequential across the whole paper.
type Slot struct {
	Number  int
	Part    string
	Section string
	Type    qschema.QuestionType
	Marks   int
	Topic   string
	Unit    string
}

// Slots expands the definition into its ordered question slots, assigning
// question numbers, cycling section topics, and rotating source units for
// the sections that draw on specific lessons.
func (d Definition) Slots() []Slot {
	var slots []Slot
	number := 1
	unitIdx := 0

	for _, part := range d.Parts {
		for _, sec := range part.Sections {
			for i := 0; i < sec.Count; i++ {
				slot := Slot{
					Number:  number,
					Part:    part.Name,
					Section: sec.Name,
					Type:    sec.Type,
					Marks:   sec.Marks,
					Topic:   sec.Topic,
				}
				if len(sec.TopicCycle) > 0 {
					slot.Topic = sec.TopicCycle[i%len(sec.TopicCycle)]
				}
				if sec.UseUnits && len(d.Units) > 0 {
					slot.Unit = d.Units[unitIdx%len(d.Units)]
					unitIdx++
				}
				slots = append(slots, slot)
				number++
			}
		}
	}
	return slots
}

// Validate checks internal consistency: positive counts, known question
// types, choose within count, and scored marks summing to TotalMarks.
func (d Definition) Validate() error {
	if len(d.Parts) == 0 {
		return fmt.Errorf("blueprint has no parts")
	}

	scored := 0
	for _, part := range d.Parts {
		if len(part.Sections) == 0 {
			return fmt.Errorf("part %s has no sections", part.Name)
		}
		for _, sec := range part.Sections {
			if sec.Count <= 0 || sec.Marks <= 0 {
				return fmt.Errorf("part %s section %s: count and marks must be positive", part.Name, sec.Name)
			}
			if !qschema.Known(sec.Type) {
				return fmt.Errorf("part %s section %s: unknown question type %q", part.Name, sec.Name, sec.Type)
			}
			if sec.Choose > sec.Count {
				return fmt.Errorf("part %s section %s: choose %d exceeds count %d", part.Name, sec.Name, sec.Choose, sec.Count)
			}
			effective := sec.Count
			if sec.Choose > 0 {
				effective = sec.Choose
			}
			scored += effective * sec.Marks
		}
	}

	if scored != d.TotalMarks {
		return fmt.Errorf("scored marks %d do not match declared total %d", scored, d.TotalMarks)
	}
	return nil
}

// SectionQuota returns how many answers count toward marks in a section
// (0 means every answer counts).
func (d Definition) SectionQuota(partName, sectionName string) int {
	for _, part := range d.Parts {
		if part.Name != partName {
			continue
		}
		for _, sec := range part.Sections {
			if sec.Name == sectionName {
				return sec.Choose
			}
		}
	}
	return 0
}

// QuestionCount is the total number of slots the blueprint expands to.
func (d Definition) QuestionCount() int {
	n := 0
	for _, part := range d.Parts {
		for _, sec := range part.Sections {
			n += sec.Count
		}
	}
	return n
}

// Default is the seeded board-exam blueprint: 47 questions, 100 marks,
// 3 hours. Part I vocabulary MCQs, Part II short answers, Part III long
// answers, Part IV internal-choice essays.
func Default() Definition {
	return Definition{
		Title:           "English Paper I",
		TotalMarks:      100,
		DurationMinutes: 180,
		Units:           []string{"1", "2", "3", "4", "5", "6", "7"},
		Parts: []Part{
			{
				Name:  "I",
				Title: "Vocabulary and Language Functions",
				Sections: []Section{
					{
						Name:  "vocabulary",
						Type:  qschema.TypeMCQ,
						Count: 14,
						Marks: 1,
						TopicCycle: []string{
							"synonym", "antonym", "plural form", "prefix", "suffix",
							"abbreviation", "phrasal verb", "compound word", "preposition",
							"tense form", "linker", "article", "homophone", "clipped form",
						},
					},
				},
			},
			{
				Name:  "II",
				Title: "Short Answers",
				Sections: []Section{
					{Name: "grammar", Type: qschema.TypeShort, Count: 6, Choose: 4, Marks: 2, Topic: "grammar exercise"},
					{Name: "prose", Type: qschema.TypeShort, Count: 4, Choose: 3, Marks: 2, Topic: "prose comprehension", UseUnits: true},
					{Name: "poetry", Type: qschema.TypeShort, Count: 4, Choose: 3, Marks: 2, Topic: "poem appreciation", UseUnits: true},
				},
			},
			{
				Name:  "III",
				Title: "Paragraph Answers",
				Sections: []Section{
					{Name: "prose", Type: qschema.TypeLong, Count: 4, Choose: 3, Marks: 5, Topic: "prose paragraph", UseUnits: true},
					{Name: "poetry", Type: qschema.TypeLong, Count: 4, Choose: 3, Marks: 5, Topic: "poem paragraph", UseUnits: true},
					{Name: "supplementary", Type: qschema.TypeLong, Count: 4, Choose: 2, Marks: 5, Topic: "supplementary story", UseUnits: true},
					{Name: "writing", Type: qschema.TypeLong, Count: 5, Choose: 2, Marks: 5, Topic: "formal writing task"},
				},
			},
			{
				Name:  "IV",
				Title: "Essays",
				Sections: []Section{
					{Name: "essay", Type: qschema.TypeInternalChoice, Count: 2, Marks: 8, Topic: "extended composition", UseUnits: true},
				},
			},
		},
	}
}

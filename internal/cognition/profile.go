package cognition

// ModelVersion is the current cognition schema version. Bump when the
// document format or the section set changes.
const ModelVersion = "2.0"

// SectionName identifies one of the fixed cognition sections.
type SectionName string

const (
	CoreThinkingPatterns SectionName = "Core Thinking Patterns"
	DecisionApproach     SectionName = "Decision Approach"
	LearningStyle        SectionName = "Learning Style"
	ExecutionTendencies  SectionName = "Execution Tendencies"
	CognitiveStrengths   SectionName = "Cognitive Strengths"
	ExperienceThemes     SectionName = "Generalized Experience Themes"
)

// SectionOrder is the fixed, exhaustive section sequence of the cognition
// document. Absent sections are emitted with zero bullets, never omitted.
var SectionOrder = []SectionName{
	CoreThinkingPatterns,
	DecisionApproach,
	LearningStyle,
	ExecutionTendencies,
	CognitiveStrengths,
	ExperienceThemes,
}

// Section is a named, ordered sequence of bullet strings.
type Section struct {
	Name    SectionName `json:"name"`
	Bullets []string    `json:"bullets"`
}

// Profile is the distilled, shareable cognition profile. It is immutable once
// written: a new distillation run fully replaces the previous profile.
type Profile struct {
	Sections     []Section `json:"sections"`
	ModelVersion string    `json:"model_version"`
}

// NewProfile returns an empty profile with all sections present in canonical
// order and the current model version.
func NewProfile() *Profile {
	sections := make([]Section, len(SectionOrder))
	for i, name := range SectionOrder {
		sections[i] = Section{Name: name}
	}
	return &Profile{
		Sections:     sections,
		ModelVersion: ModelVersion,
	}
}

// Append adds a bullet to the named section in encounter order.
// Unknown section names are ignored (the section set is fixed).
func (p *Profile) Append(name SectionName, bullet string) {
	for i := range p.Sections {
		if p.Sections[i].Name == name {
			p.Sections[i].Bullets = append(p.Sections[i].Bullets, bullet)
			return
		}
	}
}

// BulletCount returns the total number of bullets across all sections.
func (p *Profile) BulletCount() int {
	n := 0
	for _, s := range p.Sections {
		n += len(s.Bullets)
	}
	return n
}

package hooks

// SettingsPage is the admin form assembled by admin-init hooks.
type SettingsPage struct {
	Slug     string            `json:"slug"`
	Title    string            `json:"title"`
	Status   *IntegrationState `json:"status,omitempty"`
	Sections []*Section        `json:"sections"`
}

type Section struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

type Field struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Label string      `json:"label"`
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
	Help  string      `json:"help,omitempty"`
}

// IntegrationState is the banner shown above the form.
type IntegrationState struct {
	Integrated bool   `json:"integrated"`
	Message    string `json:"message"`
	AccountURL string `json:"account_url,omitempty"`
	GuideURL   string `json:"guide_url"`
	SignupURL  string `json:"signup_url,omitempty"`
}

// AddSection appends a section, or returns the existing one with that id.
// The returned section stays valid as more sections are added.
func (p *SettingsPage) AddSection(id, title string) *Section {
	for _, s := range p.Sections {
		if s.ID == id {
			return s
		}
	}
	s := &Section{ID: id, Title: title}
	p.Sections = append(p.Sections, s)
	return s
}

func (s *Section) AddField(f Field) {
	s.Fields = append(s.Fields, f)
}

// Field finds a field by id across all sections.
func (p *SettingsPage) Field(id string) (Field, bool) {
	for _, s := range p.Sections {
		for _, f := range s.Fields {
			if f.ID == id {
				return f, true
			}
		}
	}
	return Field{}, false
}

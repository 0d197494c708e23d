package model

// Reference is the read-only subject data used for entity lookup and templated replies
type Reference struct {
	Subject        string         `json:"subject" yaml:"subject"`                 // e.g. "Red Hot Chili Peppers"
	CurrentMembers []Person       `json:"current_members" yaml:"current_members"` // Ordered
	FormerMembers  []Person       `json:"former_members" yaml:"former_members"`   // Ordered
	Discography    []WorkCategory `json:"discography" yaml:"discography"`         // Categories in priority order
}

// Person is a current or former member
type Person struct {
	Name        string   `json:"name" yaml:"name"`
	Roles       []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	YearsActive string   `json:"years_active,omitempty" yaml:"years_active,omitempty"`
	Biography   string   `json:"biography,omitempty" yaml:"biography,omitempty"`
}

// WorkCategory groups works (studio, compilation, live...)
type WorkCategory struct {
	Name  string `json:"name" yaml:"name"`
	Works []Work `json:"works" yaml:"works"`
}

// Work is an album; Tracks are its sub-works
type Work struct {
	Name        string   `json:"name" yaml:"name"`
	ReleaseDate string   `json:"release_date,omitempty" yaml:"release_date,omitempty"`
	Producer    string   `json:"producer,omitempty" yaml:"producer,omitempty"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
	Tracks      []string `json:"tracks,omitempty" yaml:"tracks,omitempty"`
}

// Work category names used by the default data set
const (
	CategoryStudio      = "studio"
	CategoryCompilation = "compilation"
	CategoryLive        = "live"
)

// People returns current members followed by former members
func (r *Reference) People() []Person {
	people := make([]Person, 0, len(r.CurrentMembers)+len(r.FormerMembers))
	people = append(people, r.CurrentMembers...)
	return append(people, r.FormerMembers...)
}

// Works returns every work across all categories in category order
func (r *Reference) Works() []Work {
	var works []Work
	for _, cat := range r.Discography {
		works = append(works, cat.Works...)
	}
	return works
}

// Category returns the named work category
func (r *Reference) Category(name string) (*WorkCategory, bool) {
	for i := range r.Discography {
		if r.Discography[i].Name == name {
			return &r.Discography[i], true
		}
	}
	return nil, false
}

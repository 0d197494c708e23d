// Package extract finds mentions of known people, works and sub-works in
// message text by case-insensitive substring containment.
package extract

import (
	"strings"

	"github.com/ppiankov/factbot/internal/model"
	"github.com/ppiankov/factbot/internal/nlp"
)

// SubWorkKey is a sub-work title tagged with the work that contains it
type SubWorkKey struct {
	Key        string
	Title      string // Title as written in the reference data
	ParentWork string // Display name of the containing work
}

// Dictionaries holds the lower-cased lookup keys built once from reference data.
// Keys keep the order of the reference data; the indexes map a key to its record.
type Dictionaries struct {
	People   []string
	Works    []string
	SubWorks []SubWorkKey

	people map[string]*model.Person
	works  map[string]*model.Work
}

// BuildDictionaries flattens reference data into the three dictionaries.
// People are current then former members; works follow category order;
// every track becomes a sub-work of its album.
func BuildDictionaries(ref *model.Reference) *Dictionaries {
	d := &Dictionaries{
		people: make(map[string]*model.Person),
		works:  make(map[string]*model.Work),
	}
	if ref == nil {
		return d
	}

	for i := range ref.CurrentMembers {
		d.addPerson(&ref.CurrentMembers[i])
	}
	for i := range ref.FormerMembers {
		d.addPerson(&ref.FormerMembers[i])
	}

	seenSub := make(map[SubWorkKey]bool)
	for c := range ref.Discography {
		for w := range ref.Discography[c].Works {
			work := &ref.Discography[c].Works[w]
			d.addWork(work)

			for _, track := range work.Tracks {
				title := strings.TrimSpace(track)
				sk := SubWorkKey{Key: nlp.Normalize(title), Title: title, ParentWork: work.Name}
				if sk.Key == "" || seenSub[sk] {
					continue
				}
				seenSub[sk] = true
				d.SubWorks = append(d.SubWorks, sk)
			}
		}
	}

	return d
}

func (d *Dictionaries) addPerson(p *model.Person) {
	key := nlp.Normalize(strings.TrimSpace(p.Name))
	if key == "" {
		return
	}
	if _, ok := d.people[key]; ok {
		return
	}
	d.people[key] = p
	d.People = append(d.People, key)
}

func (d *Dictionaries) addWork(w *model.Work) {
	key := nlp.Normalize(strings.TrimSpace(w.Name))
	if key == "" {
		return
	}
	if _, ok := d.works[key]; ok {
		return
	}
	d.works[key] = w
	d.Works = append(d.Works, key)
}

// Size returns the total number of keys
func (d *Dictionaries) Size() int {
	return len(d.People) + len(d.Works) + len(d.SubWorks)
}

// EntityExtractor scans normalized messages against the dictionaries
type EntityExtractor struct {
	dict *Dictionaries
}

// NewEntityExtractor creates a new entity extractor
func NewEntityExtractor(dict *Dictionaries) *EntityExtractor {
	if dict == nil {
		dict = &Dictionaries{}
	}
	return &EntityExtractor{dict: dict}
}

// Extract returns one match for every key contained in the normalized message:
// people first, then works, then sub-works, each in dictionary order.
// Overlapping matches are all reported. A key without a reference record
// yields a match carrying only the key as its name.
func (e *EntityExtractor) Extract(normalized string) []model.EntityMatch {
	matches := make([]model.EntityMatch, 0)
	if normalized == "" {
		return matches
	}

	for _, key := range e.dict.People {
		if !strings.Contains(normalized, key) {
			continue
		}
		ref := model.ReferenceEntity{Name: key}
		if p, ok := e.dict.people[key]; ok {
			ref = model.ReferenceEntity{Name: p.Name, Person: p}
		}
		matches = append(matches, model.EntityMatch{Type: model.EntityPerson, Reference: ref})
	}

	for _, key := range e.dict.Works {
		if !strings.Contains(normalized, key) {
			continue
		}
		ref := model.ReferenceEntity{Name: key}
		if w, ok := e.dict.works[key]; ok {
			ref = model.ReferenceEntity{Name: w.Name, Work: w}
		}
		matches = append(matches, model.EntityMatch{Type: model.EntityWork, Reference: ref})
	}

	for _, sk := range e.dict.SubWorks {
		if !strings.Contains(normalized, sk.Key) {
			continue
		}
		name := sk.Title
		if name == "" {
			name = sk.Key
		}
		matches = append(matches, model.EntityMatch{
			Type:       model.EntitySubWork,
			Reference:  model.ReferenceEntity{Name: name},
			ParentWork: sk.ParentWork,
		})
	}

	return matches
}

// First returns the first match of the given type
func First(matches []model.EntityMatch, typ model.EntityType) (model.EntityMatch, bool) {
	for _, m := range matches {
		if m.Type == typ {
			return m, true
		}
	}
	return model.EntityMatch{}, false
}

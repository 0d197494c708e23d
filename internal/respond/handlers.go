package respond

import (
	"fmt"
	"strings"

	"github.com/ppiankov/factbot/internal/model"
	"github.com/ppiankov/factbot/internal/nlp"
)

// Intents with dedicated handlers
const (
	IntentMemberBiography = "member.biography"
	IntentAlbumSpecific   = "album.specific"
	IntentSongSpecific    = "song.specific"
	IntentBandMembers     = "band.members"
	IntentFormerMembers   = "band.former_members"
	IntentAlbumInfo       = "album.info"
)

const maxTrackPreview = 5

// DefaultHandlers returns the built-in handlers in precedence order
func DefaultHandlers() []Handler {
	return []Handler{
		{Name: "biography", Intents: []string{IntentMemberBiography}, Requires: model.EntityPerson, Respond: biography},
		{Name: "album", Intents: []string{IntentAlbumSpecific}, Requires: model.EntityWork, Respond: albumDetails},
		{Name: "song", Intents: []string{IntentAlbumSpecific, IntentSongSpecific}, Requires: model.EntitySubWork, Respond: songAlbum},
		{Name: "members", Intents: []string{IntentBandMembers}, Respond: currentMembers},
		{Name: "former-members", Intents: []string{IntentFormerMembers}, Respond: formerMembers},
		{Name: "studio-albums", Intents: []string{IntentAlbumInfo}, Respond: studioAlbums},
	}
}

func biography(req Request) string {
	p := req.Entity.Reference.Person
	if p != nil && p.Biography != "" {
		return p.Biography
	}
	return fmt.Sprintf("I know about %s, but I don't have a detailed biography.", displayName(req.Entity.Reference))
}

func albumDetails(req Request) string {
	w := req.Entity.Reference.Work
	if w == nil {
		return fmt.Sprintf("I know about %s, but I don't have its release details.", displayName(req.Entity.Reference))
	}

	var b strings.Builder
	if w.ReleaseDate != "" {
		fmt.Fprintf(&b, "%s was released on %s", w.Name, w.ReleaseDate)
	} else {
		fmt.Fprintf(&b, "%s has no recorded release date", w.Name)
	}
	if w.Producer != "" {
		fmt.Fprintf(&b, " and produced by %s", w.Producer)
	}
	if len(w.Tracks) > 0 {
		n := min(len(w.Tracks), maxTrackPreview)
		fmt.Fprintf(&b, ". It includes tracks like %s", strings.Join(w.Tracks[:n], ", "))
		if len(w.Tracks) > maxTrackPreview {
			b.WriteString("...")
		}
	}
	b.WriteString(".")
	return b.String()
}

func songAlbum(req Request) string {
	if req.Entity.ParentWork == "" {
		return ""
	}
	return fmt.Sprintf("%s is from the album %s.", displayName(req.Entity.Reference), req.Entity.ParentWork)
}

func currentMembers(req Request) string {
	if req.Reference == nil || len(req.Reference.CurrentMembers) == 0 {
		return ""
	}
	return fmt.Sprintf("The current members of %s are %s.", subject(req.Reference), joinNames(req.Reference.CurrentMembers))
}

func formerMembers(req Request) string {
	if req.Reference == nil || len(req.Reference.FormerMembers) == 0 {
		return ""
	}
	return fmt.Sprintf("Former members of %s include %s.", subject(req.Reference), joinNames(req.Reference.FormerMembers))
}

func studioAlbums(req Request) string {
	if req.Reference == nil {
		return ""
	}
	cat, ok := req.Reference.Category(model.CategoryStudio)
	if !ok || len(cat.Works) == 0 {
		return ""
	}

	first, last := cat.Works[0], cat.Works[len(cat.Works)-1]
	if len(cat.Works) == 1 {
		return fmt.Sprintf("%s have released 1 studio album, %s.", subject(req.Reference), withYear(first))
	}
	return fmt.Sprintf("%s have released %d studio albums, from %s to %s.",
		subject(req.Reference), len(cat.Works), withYear(first), withYear(last))
}

// displayName prefers the record name and title-cases bare keys
func displayName(ref model.ReferenceEntity) string {
	switch {
	case ref.Person != nil:
		return ref.Person.Name
	case ref.Work != nil:
		return ref.Work.Name
	case ref.Name != strings.ToLower(ref.Name):
		return ref.Name
	default:
		return nlp.DisplayName(ref.Name)
	}
}

func subject(ref *model.Reference) string {
	if ref.Subject == "" {
		return "the band"
	}
	return ref.Subject
}

func withYear(w model.Work) string {
	if len(w.ReleaseDate) >= 4 {
		return fmt.Sprintf("%s (%s)", w.Name, w.ReleaseDate[:4])
	}
	return w.Name
}

// joinNames renders "A", "A and B" or "A, B and C"
func joinNames(people []model.Person) string {
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = p.Name
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

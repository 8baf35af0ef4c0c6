package derive

import (
	"strings"

	"github.com/lehigh-university-libraries/booklist/internal/models"
)

type role struct {
	key   string
	label string
}

var bookRoles = []role{
	{models.RoleIllustrator, "Illustration"},
	{models.RoleDrawer, "Zeichnungen"},
	{models.RolePhotographer, "Fotos"},
	{models.RoleTranslator, "Übersetzung"},
	{models.RoleEditor, "Herausgabe"},
	{models.RoleParticipant, "Mitarbeit"},
	{models.RoleOriginal, "Vorlage"},
}

var mediaRoles = []role{
	{models.RoleNarrator, "Gelesen von"},
	{models.RoleComposer, "Musik"},
	{models.RoleProducer, "Produktion"},
	{models.RoleDirector, "Regie"},
	{models.RoleParticipant, "Mitarbeit"},
}

// Participants lists the people involved besides the authors, e.g.
// "Illustration: Anna Beispiel. Übersetzung: Ben Muster & Cleo Probe."
func Participants(record models.BibliographicRecord) string {
	roles := bookRoles
	if record.Kind == models.KindMedia {
		roles = mediaRoles
	}

	var segments []string
	for _, r := range roles {
		names := cleanNames(record.Participants[r.key])
		if len(names) == 0 {
			continue
		}
		segments = append(segments, r.label+": "+strings.Join(names, " & "))
	}

	if len(segments) == 0 {
		return ""
	}
	return strings.Join(segments, ". ") + "."
}

func cleanNames(names []string) []string {
	var out []string
	for _, name := range names {
		if name = swapName(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

package reference

import (
	"fmt"
	"strings"
)

// Tagged renders the reference's current fields as serialized markup in
// the journal production style: a <reference> element with label,
// author, title, host and comment sections. Regenerated after every
// enrichment pass.
func (r *ParsedReference) Tagged() string {
	f := &r.Fields

	var b strings.Builder
	fmt.Fprintf(&b, "<reference id=%q>\n", fmt.Sprintf("ref%d", r.Index+1))
	fmt.Fprintf(&b, "<label>%s</label>\n", escapeTag(r.label()))

	if len(f.FamilyNames) > 0 {
		b.WriteString("<contribution><authors>\n")
		for i, family := range f.FamilyNames {
			given := ""
			if i < len(f.GivenNames) {
				given = f.GivenNames[i]
			}
			fmt.Fprintf(&b, "<author><given-name>%s</given-name><surname>%s</surname></author>\n",
				escapeTag(given), escapeTag(family))
		}
		b.WriteString("</authors></contribution>\n")
	}

	if f.Title != "" {
		fmt.Fprintf(&b, "<title><maintitle>%s</maintitle></title>\n", escapeTag(f.Title))
	}

	if f.Journal != "" || f.Year != 0 || f.Pages != "" {
		b.WriteString("<host>")
		if f.Journal != "" {
			fmt.Fprintf(&b, "<maintitle>%s</maintitle>", escapeTag(f.Journal))
		}
		if f.Year != 0 {
			fmt.Fprintf(&b, "<date>%d</date>", f.Year)
		}
		if f.Pages != "" {
			fmt.Fprintf(&b, "<pages>%s</pages>", escapeTag(f.Pages))
		}
		b.WriteString("</host>\n")
	}

	if f.DOI != "" || f.URL != "" {
		b.WriteString("<comment>")
		if f.DOI != "" {
			fmt.Fprintf(&b, "<doi>%s</doi>", escapeTag(f.DOI))
		}
		if f.URL != "" {
			fmt.Fprintf(&b, "<url>%s</url>", escapeTag(f.URL))
		}
		b.WriteString("</comment>\n")
	}

	b.WriteString("</reference>")
	return b.String()
}

// label builds the "Surname (Year)" citation label.
func (r *ParsedReference) label() string {
	surname := "Unknown"
	if len(r.Fields.FamilyNames) > 0 {
		surname = r.Fields.FamilyNames[0]
	}
	if r.Fields.Year != 0 {
		return fmt.Sprintf("%s (%d)", surname, r.Fields.Year)
	}
	return surname
}

var tagEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeTag(s string) string {
	return tagEscaper.Replace(s)
}

package testsupport

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// EAFAnnotation is one time-aligned annotation in a fixture tier.
type EAFAnnotation struct {
	Start int64
	End   int64
	Text  string
}

// EAFTier is a fixture tier. Tiers with a Parent are written as symbolic
// association tiers whose annotations reference the parent's annotations by
// position, so Annotations carry only Text.
type EAFTier struct {
	ID          string
	Parent      string
	Language    string
	Annotations []EAFAnnotation
}

// EAFFixture describes a fixture ELAN document.
type EAFFixture struct {
	MediaURL         string
	RelativeMediaURL string
	Tiers            []EAFTier
}

// EAFDocument renders fixture as ELAN 3.0 XML.
func EAFDocument(fixture EAFFixture) string {
	var slots strings.Builder
	var tiers strings.Builder
	slotID := 0
	annID := 0
	idsByTier := map[string][]string{}

	for _, tier := range fixture.Tiers {
		lang := ""
		if tier.Language != "" {
			lang = fmt.Sprintf(" LANG_REF=%q", tier.Language)
		}
		if tier.Parent != "" {
			fmt.Fprintf(&tiers, "  <TIER TIER_ID=%q LINGUISTIC_TYPE_REF=\"translation\" PARENT_REF=%q%s>\n", tier.ID, tier.Parent, lang)
		} else {
			fmt.Fprintf(&tiers, "  <TIER TIER_ID=%q LINGUISTIC_TYPE_REF=\"default-lt\"%s>\n", tier.ID, lang)
		}
		for i, ann := range tier.Annotations {
			annID++
			id := fmt.Sprintf("a%d", annID)
			idsByTier[tier.ID] = append(idsByTier[tier.ID], id)
			value := html.EscapeString(ann.Text)
			if tier.Parent != "" {
				parentIDs := idsByTier[tier.Parent]
				ref := ""
				if i < len(parentIDs) {
					ref = parentIDs[i]
				}
				fmt.Fprintf(&tiers, "    <ANNOTATION><REF_ANNOTATION ANNOTATION_ID=%q ANNOTATION_REF=%q><ANNOTATION_VALUE>%s</ANNOTATION_VALUE></REF_ANNOTATION></ANNOTATION>\n", id, ref, value)
				continue
			}
			slotID++
			start := fmt.Sprintf("ts%d", slotID)
			fmt.Fprintf(&slots, "    <TIME_SLOT TIME_SLOT_ID=%q TIME_VALUE=\"%d\"/>\n", start, ann.Start)
			slotID++
			end := fmt.Sprintf("ts%d", slotID)
			fmt.Fprintf(&slots, "    <TIME_SLOT TIME_SLOT_ID=%q TIME_VALUE=\"%d\"/>\n", end, ann.End)
			fmt.Fprintf(&tiers, "    <ANNOTATION><ALIGNABLE_ANNOTATION ANNOTATION_ID=%q TIME_SLOT_REF1=%q TIME_SLOT_REF2=%q><ANNOTATION_VALUE>%s</ANNOTATION_VALUE></ALIGNABLE_ANNOTATION></ANNOTATION>\n", id, start, end, value)
		}
		tiers.WriteString("  </TIER>\n")
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<ANNOTATION_DOCUMENT AUTHOR="" FORMAT="3.0" VERSION="3.0">` + "\n")
	b.WriteString(`  <HEADER MEDIA_FILE="" TIME_UNITS="milliseconds">` + "\n")
	if fixture.MediaURL != "" || fixture.RelativeMediaURL != "" {
		fmt.Fprintf(&b, "    <MEDIA_DESCRIPTOR MEDIA_URL=%q MIME_TYPE=\"audio/x-wav\" RELATIVE_MEDIA_URL=%q/>\n",
			html.EscapeString(fixture.MediaURL), html.EscapeString(fixture.RelativeMediaURL))
	}
	b.WriteString("  </HEADER>\n  <TIME_ORDER>\n")
	b.WriteString(slots.String())
	b.WriteString("  </TIME_ORDER>\n")
	b.WriteString(tiers.String())
	b.WriteString(`  <LINGUISTIC_TYPE LINGUISTIC_TYPE_ID="default-lt" TIME_ALIGNABLE="true"/>` + "\n")
	b.WriteString(`  <LINGUISTIC_TYPE LINGUISTIC_TYPE_ID="translation" CONSTRAINTS="Symbolic_Association" TIME_ALIGNABLE="false"/>` + "\n")
	b.WriteString("</ANNOTATION_DOCUMENT>\n")
	return b.String()
}

// WriteEAF writes fixture to path and returns path.
func WriteEAF(t testing.TB, path string, fixture EAFFixture) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(EAFDocument(fixture)), 0o644); err != nil {
		t.Fatalf("write eaf %s: %v", path, err)
	}
	return path
}

package elan

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"hermes/internal/failure"
)

var (
	timeSlotExpr    = xpath.MustCompile("//TIME_ORDER/TIME_SLOT")
	tierExpr        = xpath.MustCompile("//TIER")
	annotationExpr  = xpath.MustCompile("ANNOTATION/*")
	valueExpr       = xpath.MustCompile("ANNOTATION_VALUE")
	mediaExpr       = xpath.MustCompile("//HEADER/MEDIA_DESCRIPTOR")
	headerExpr      = xpath.MustCompile("//HEADER")
	alignableName   = "ALIGNABLE_ANNOTATION"
	referenceName   = "REF_ANNOTATION"
	supportedTimeMS = "milliseconds"
)

// Annotation is one time-coded text span of a tier.
type Annotation struct {
	ID    string
	Start int64
	End   int64
	Text  string
}

// Tier is a named channel of annotations.
type Tier struct {
	ID             string
	Parent         string
	LinguisticType string
	// Language is the tier's LANG_REF, usually an ISO 639-3 code.
	Language    string
	Annotations []Annotation
}

// Media is a linked media descriptor from the document header.
type Media struct {
	URL         string
	RelativeURL string
	MimeType    string
}

// Document is a parsed ELAN file.
type Document struct {
	// Path is the file the document was read from; empty for Parse.
	Path string
	// Unaligned counts annotations dropped because a time slot had no value.
	Unaligned int

	tiers []Tier
	media []Media
}

// Open reads and parses an .eaf file.
func Open(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elan file: %w", err)
	}
	defer file.Close()

	doc, err := Parse(file)
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	doc.Path = path
	return doc, nil
}

// Parse reads an ELAN document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, failure.Wrap(failure.ErrValidation, "elan", "parse", "malformed document", err)
	}
	if xmlquery.FindOne(root, "/ANNOTATION_DOCUMENT") == nil {
		return nil, failure.Wrap(failure.ErrValidation, "elan", "parse", "missing ANNOTATION_DOCUMENT root", nil)
	}
	if header := xmlquery.QuerySelector(root, headerExpr); header != nil {
		if value := strings.TrimSpace(header.SelectAttr("TIME_UNITS")); value != "" && value != supportedTimeMS {
			return nil, failure.Wrap(failure.ErrValidation, "elan", "parse", fmt.Sprintf("unsupported time units %q", value), nil)
		}
	}

	slots, err := readTimeSlots(root)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	for _, node := range xmlquery.QuerySelectorAll(root, mediaExpr) {
		doc.media = append(doc.media, Media{
			URL:         node.SelectAttr("MEDIA_URL"),
			RelativeURL: node.SelectAttr("RELATIVE_MEDIA_URL"),
			MimeType:    node.SelectAttr("MIME_TYPE"),
		})
	}

	spans := map[string]Annotation{}
	type pendingRef struct {
		tier int
		ann  Annotation
		ref  string
	}
	var refs []pendingRef

	for _, tierNode := range xmlquery.QuerySelectorAll(root, tierExpr) {
		tier := Tier{
			ID:             tierNode.SelectAttr("TIER_ID"),
			Parent:         tierNode.SelectAttr("PARENT_REF"),
			LinguisticType: tierNode.SelectAttr("LINGUISTIC_TYPE_REF"),
			Language:       tierNode.SelectAttr("LANG_REF"),
		}
		tierIndex := len(doc.tiers)
		for _, annNode := range xmlquery.QuerySelectorAll(tierNode, annotationExpr) {
			ann := Annotation{ID: annNode.SelectAttr("ANNOTATION_ID")}
			if value := xmlquery.QuerySelector(annNode, valueExpr); value != nil {
				ann.Text = value.InnerText()
			}
			switch annNode.Data {
			case alignableName:
				start, okStart := slots[annNode.SelectAttr("TIME_SLOT_REF1")]
				end, okEnd := slots[annNode.SelectAttr("TIME_SLOT_REF2")]
				if !okStart || !okEnd {
					doc.Unaligned++
					continue
				}
				ann.Start, ann.End = start, end
				spans[ann.ID] = ann
				tier.Annotations = append(tier.Annotations, ann)
			case referenceName:
				refs = append(refs, pendingRef{tier: tierIndex, ann: ann, ref: annNode.SelectAttr("ANNOTATION_REF")})
				tier.Annotations = append(tier.Annotations, ann)
			}
		}
		doc.tiers = append(doc.tiers, tier)
	}

	// References may chain through several tiers and may point forward in
	// document order, so resolve until no progress is made.
	resolved := make([]bool, len(refs))
	for progress := true; progress; {
		progress = false
		for i, ref := range refs {
			if resolved[i] {
				continue
			}
			parent, ok := spans[ref.ref]
			if !ok {
				continue
			}
			ref.ann.Start, ref.ann.End = parent.Start, parent.End
			spans[ref.ann.ID] = ref.ann
			refs[i] = ref
			resolved[i] = true
			progress = true
		}
	}
	for tierIndex := range doc.tiers {
		tier := &doc.tiers[tierIndex]
		kept := tier.Annotations[:0]
		for _, ann := range tier.Annotations {
			if span, ok := spans[ann.ID]; ok {
				kept = append(kept, span)
				continue
			}
			doc.Unaligned++
		}
		tier.Annotations = kept
	}

	return doc, nil
}

func readTimeSlots(root *xmlquery.Node) (map[string]int64, error) {
	slots := map[string]int64{}
	for _, node := range xmlquery.QuerySelectorAll(root, timeSlotExpr) {
		id := node.SelectAttr("TIME_SLOT_ID")
		raw := strings.TrimSpace(node.SelectAttr("TIME_VALUE"))
		if id == "" || raw == "" {
			continue
		}
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, failure.Wrap(failure.ErrValidation, "elan", "parse", fmt.Sprintf("time slot %s has invalid value %q", id, raw), err)
		}
		slots[id] = value
	}
	return slots, nil
}

// TierNames lists tier identifiers in document order.
func (d *Document) TierNames() []string {
	names := make([]string, 0, len(d.tiers))
	for _, tier := range d.tiers {
		names = append(names, tier.ID)
	}
	return names
}

// Tier returns the named tier.
func (d *Document) Tier(name string) (Tier, bool) {
	for _, tier := range d.tiers {
		if tier.ID == name {
			return tier, true
		}
	}
	return Tier{}, false
}

// Annotations returns a copy of the annotation data for a tier in document order.
func (d *Document) Annotations(tier string) ([]Annotation, error) {
	t, ok := d.Tier(tier)
	if !ok {
		return nil, failure.Wrap(failure.ErrValidation, "elan", "annotations", fmt.Sprintf("unknown tier %q", tier), nil)
	}
	return append([]Annotation(nil), t.Annotations...), nil
}

// LinkedMedia returns the media descriptors from the header.
func (d *Document) LinkedMedia() []Media {
	return append([]Media(nil), d.media...)
}

// MediaCandidates lists filesystem paths where the first linked media file
// may live: the absolute MEDIA_URL first, then RELATIVE_MEDIA_URL resolved
// against the document's directory.
func (d *Document) MediaCandidates() []string {
	if len(d.media) == 0 {
		return nil
	}
	media := d.media[0]
	var candidates []string
	if path := FileURLToPath(media.URL); path != "" {
		candidates = append(candidates, path)
	}
	if rel := FileURLToPath(media.RelativeURL); rel != "" {
		if !filepath.IsAbs(rel) && d.Path != "" {
			rel = filepath.Join(filepath.Dir(d.Path), rel)
		}
		candidates = append(candidates, filepath.Clean(rel))
	}
	return candidates
}

// FileURLToPath converts a file:// URL (or a bare path) into a local path.
func FileURLToPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "file:") {
		return filepath.FromSlash(raw)
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "file" && parsed.Scheme != "") {
		return ""
	}
	path := parsed.Path
	if path == "" {
		path = parsed.Opaque
	}
	if runtime.GOOS == "windows" && len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

package converter

import (
	"context"
	"errors"
	"strings"

	"hermes/internal/align"
	"hermes/internal/audio"
	"hermes/internal/elan"
	"hermes/internal/failure"
	"hermes/internal/language"
	"hermes/internal/logging"
	"hermes/internal/project"
	"hermes/internal/session"
)

// NoTranslationTier is the tier choice meaning "no translations".
const NoTranslationTier = "None"

type elanSource struct {
	doc   *elan.Document
	track *audio.Track
}

func openELAN(path string) (*elanSource, error) {
	doc, err := elan.Open(path)
	if err != nil {
		return nil, err
	}
	return &elanSource{doc: doc}, nil
}

// ImportResult describes a freshly opened ELAN transcript.
type ImportResult struct {
	Tiers []string
	// Media is the resolved source recording, or "" when it was not found.
	Media string
}

// ImportELAN starts a project from an ELAN file. The source recording is
// looked up from the file's linked media, then through the Locator. A missing
// recording is not an error: rows are created but their audio stays
// unavailable.
func (c *Converter) ImportELAN(ctx context.Context, name, eafPath string, meta project.Metadata) (ImportResult, error) {
	c.teardown()
	if err := c.lifecycle.ChooseMode(project.ModeELAN); err != nil {
		return ImportResult{}, err
	}
	src, err := openELAN(eafPath)
	if err != nil {
		c.lifecycle.Reset()
		return ImportResult{}, err
	}

	track, err := audio.Locate(ctx, src.doc.MediaCandidates(), c.locator, c.logger)
	switch {
	case err == nil:
		src.track = track
	case errors.Is(err, failure.ErrMediaNotFound):
		logging.WarnWithContext(c.logger, "source recording not found", "media_not_found",
			logging.String("eaf", src.doc.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "pass --media or place the recording next to the .eaf file"),
			logging.String(logging.FieldImpact, "rows will have no audio"),
		)
	default:
		c.lifecycle.Reset()
		return ImportResult{}, err
	}

	model := project.New(name, project.ModeELAN, normalizeMetadata(meta))
	model.SetSourceFile(src.doc.Path)
	model.SetTrack(src.track)
	if err := c.manager.Paths(model).Ensure(); err != nil {
		c.lifecycle.Reset()
		return ImportResult{}, failure.Wrap(failure.ErrWriteFailure, "converter", "import", "create project directories", err)
	}
	c.install(model, src, "")

	result := ImportResult{Tiers: src.doc.TierNames()}
	if src.track != nil {
		result.Media = src.track.Path
	}
	if src.doc.Unaligned > 0 {
		c.logger.Info("skipped unaligned annotations", logging.Int("count", src.doc.Unaligned))
	}
	c.logger.Info("elan transcript imported",
		logging.String(logging.FieldProject, name),
		logging.String("eaf", src.doc.Path),
		logging.Int("tiers", len(result.Tiers)),
		logging.Bool("media_found", src.track != nil),
	)
	return result, nil
}

// Tiers lists the tiers of the imported transcript.
func (c *Converter) Tiers() ([]string, error) {
	c.mu.Lock()
	src := c.source
	c.mu.Unlock()
	if src == nil {
		return nil, failure.Wrap(failure.ErrValidation, "converter", "tiers", "no elan transcript imported", nil)
	}
	return src.doc.TierNames(), nil
}

// TranslationChoices lists the translation tier options, "None" first.
func (c *Converter) TranslationChoices() ([]string, error) {
	tiers, err := c.Tiers()
	if err != nil {
		return nil, err
	}
	return append([]string{NoTranslationTier}, tiers...), nil
}

// SelectTiers builds the rows from the transcription tier, pairing each with
// the first time-matched annotation of the translation tier. An empty or
// "None" translation tier leaves every translation absent. It returns the
// number of rows created.
func (c *Converter) SelectTiers(transcriptionTier, translationTier string) (int, error) {
	c.mu.Lock()
	src, model := c.source, c.model
	c.mu.Unlock()
	if src == nil || model == nil {
		return 0, failure.Wrap(failure.ErrValidation, "converter", "select tiers", "no elan transcript imported", nil)
	}

	transcriptions, err := spans(src.doc, transcriptionTier)
	if err != nil {
		return 0, err
	}
	var translations []align.Span
	if tl := strings.TrimSpace(translationTier); tl != "" && tl != NoTranslationTier {
		if translations, err = spans(src.doc, tl); err != nil {
			return 0, err
		}
	}
	if err := c.lifecycle.Advance(session.StateTierSelected); err != nil {
		return 0, err
	}

	matched := align.Match(transcriptions, translations, c.cfg.Alignment.ToleranceMS)
	rows := make([]project.Transcription, len(transcriptions))
	for i, span := range transcriptions {
		rows[i] = project.NewTranscription(span.Text, matched[i])
		rows[i].Sample = audio.NewSample(src.track, span.Start, span.End, c.extractor)
	}
	model.Append(rows...)
	fillTierLanguages(model, src.doc, transcriptionTier, translationTier)

	if err := c.lifecycle.Advance(session.StateDataLoaded); err != nil {
		return 0, err
	}
	paired := 0
	for _, m := range matched {
		if m != nil {
			paired++
		}
	}
	c.logger.Info("tiers selected",
		logging.String("transcription_tier", transcriptionTier),
		logging.String("translation_tier", translationTier),
		logging.Int("rows", len(rows)),
		logging.Int("paired", paired),
	)
	return len(rows), c.lifecycle.Edit()
}

// fillTierLanguages takes missing metadata languages from the tiers' LANG_REF.
func fillTierLanguages(model *project.Model, doc *elan.Document, transcriptionTier, translationTier string) {
	meta := model.Metadata()
	if tier, ok := doc.Tier(transcriptionTier); ok && meta.TranscriptionLanguage == "" {
		meta.TranscriptionLanguage = language.Label(tier.Language)
	}
	if tier, ok := doc.Tier(translationTier); ok && meta.TranslationLanguage == "" {
		meta.TranslationLanguage = language.Label(tier.Language)
	}
	model.SetMetadata(meta)
}

func spans(doc *elan.Document, tier string) ([]align.Span, error) {
	annotations, err := doc.Annotations(tier)
	if err != nil {
		return nil, err
	}
	out := make([]align.Span, 0, len(annotations))
	for _, ann := range annotations {
		out = append(out, align.Span{Text: ann.Text, Start: ann.Start, End: ann.End})
	}
	return out, nil
}

// TierInfo summarizes one tier for a tier picker.
type TierInfo struct {
	Name        string
	Parent      string
	Annotations int
}

// TierInfos describes every tier of the imported transcript.
func (c *Converter) TierInfos() ([]TierInfo, error) {
	c.mu.Lock()
	src := c.source
	c.mu.Unlock()
	if src == nil {
		return nil, failure.Wrap(failure.ErrValidation, "converter", "tiers", "no elan transcript imported", nil)
	}
	var out []TierInfo
	for _, name := range src.doc.TierNames() {
		tier, _ := src.doc.Tier(name)
		out = append(out, TierInfo{Name: name, Parent: tier.Parent, Annotations: len(tier.Annotations)})
	}
	return out, nil
}

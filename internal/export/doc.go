// Package export writes a project snapshot to disk in one of three layouts:
//
//   - opie: words/, translations/, sounds/ and images/ trees keyed word{row}
//   - dictionary: dictionary.csv plus sounds/ and images/ named after the transcription
//   - manifest: manifest.json plus sounds/ and images/
//
// Only selected rows with non-empty transcription text are written. Every
// mode overwrites what an earlier run of the same mode produced.
package export

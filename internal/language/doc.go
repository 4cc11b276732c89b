// Package language normalizes the language names recorded in project
// metadata. Values that are ISO 639 codes or BCP 47 tags are shown by their
// English name; anything else is kept as typed, since many documented
// languages have no code at all.
package language

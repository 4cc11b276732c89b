// Package elan reads ELAN annotation documents (.eaf).
//
// Only the parts the converter consumes are exposed: the tier list, the
// time-aligned annotation data of one tier, and the linked media
// descriptors. All times are milliseconds. Symbolic association tiers
// (REF_ANNOTATION) inherit the time span of the annotation they reference.
package elan

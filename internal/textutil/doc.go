// Package textutil normalizes annotation text for use in file names and
// row filters.
package textutil

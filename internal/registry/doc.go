// Package registry remembers recently saved projects in a small SQLite
// database so the open-project flow can list them without scanning disk.
package registry

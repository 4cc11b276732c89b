// Package session saves and restores projects, tracks the project lifecycle,
// and runs the periodic autosave.
//
// A project lives under {root}/{name}/ with assets/audio, assets/images,
// export, templates and saves subdirectories. Saves are manifest documents
// whose asset paths are relative to the save file. Every save of a project,
// manual or automatic, is serialized by an in-process mutex and a lock file in
// the saves directory, and lands on disk through a temp-file rename.
package session

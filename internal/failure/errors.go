// Package failure defines the converter's error taxonomy.
//
// Every operation that can fail for a user-facing reason wraps its cause with
// one of the sentinel markers below so the CLI (or any other shell) can decide
// how to surface it with errors.Is, without parsing messages.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMediaNotFound marks a source audio track that could not be located.
	ErrMediaNotFound = errors.New("media not found")
	// ErrNoExportLocation marks an export attempted before a destination was chosen.
	ErrNoExportLocation = errors.New("no export location")
	// ErrNoSaveTarget marks a save attempted without a target file.
	ErrNoSaveTarget = errors.New("no save target")
	// ErrWriteFailure marks an I/O error while exporting or saving.
	ErrWriteFailure = errors.New("write failure")
	// ErrAudioUnavailable marks a sample whose backing track is not loaded.
	ErrAudioUnavailable = errors.New("audio unavailable")
	// ErrValidation marks malformed input (bad save file, unknown tier, bad row).
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker. The marker should be one of the exported
// sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrWriteFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short label for the marker carried by err, for log fields
// and status lines. Unclassified errors report "unexpected".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMediaNotFound):
		return "media_not_found"
	case errors.Is(err, ErrNoExportLocation):
		return "no_export_location"
	case errors.Is(err, ErrNoSaveTarget):
		return "no_save_target"
	case errors.Is(err, ErrAudioUnavailable):
		return "audio_unavailable"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrWriteFailure):
		return "write_failure"
	default:
		return "unexpected"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}

package cli

import (
	"errors"
	"strings"

	"github.com/quiver-build/quiver/pkg/backends"
	"github.com/quiver-build/quiver/pkg/types"
)

// FormatError converts an error to a human-readable message, cleaning up
// common wrapping patterns.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return cleanErrorMessage(err.Error())
}

// GetErrorSuggestions returns helpful suggestions for an error
func GetErrorSuggestions(err error) []string {
	if err == nil {
		return nil
	}

	var handlerMissing *types.ErrHandlerMissing
	if errors.As(err, &handlerMissing) {
		return []string{
			"The backend registered the tool but never paired it with an export handler",
			"Registration requires both " + CodeStyle.Render("RegisterTool") + " and " + CodeStyle.Render("RegisterHandler"),
		}
	}

	var notRegistered *types.ErrToolNotRegistered
	if errors.As(err, &notRegistered) {
		return []string{
			"Activate the tool's backend in the " + CodeStyle.Render("backends") + " list in quiver.yaml",
			"Run " + CodeStyle.Render("quiver tools") + " to see what is exportable",
		}
	}

	var conflict *types.ErrDestinationConflict
	if errors.As(err, &conflict) {
		return []string{
			"Give one of the tools a distinct " + CodeStyle.Render("resolve") + " in quiver.yaml",
		}
	}

	var unknownBackend *types.ErrUnknownBackend
	if errors.As(err, &unknownBackend) {
		return []string{
			"Available backends: " + strings.Join(backends.IDs(), ", "),
		}
	}

	if strings.Contains(err.Error(), "sha256 mismatch") {
		return []string{
			"The pinned sha256 in quiver.yaml does not match the downloaded archive",
			"Update the pin if the tool version changed, or investigate the download source",
		}
	}

	return nil
}

// cleanErrorMessage cleans up common error message patterns
func cleanErrorMessage(msg string) string {
	// Remove redundant prefixes
	msg = strings.TrimPrefix(msg, "error: ")
	msg = strings.TrimPrefix(msg, "Error: ")

	// Clean up wrapped errors
	if strings.Contains(msg, ": ") {
		// For deeply nested errors, just show the most relevant part
		parts := strings.Split(msg, ": ")
		if len(parts) > 4 {
			// Keep first and last parts
			msg = parts[0] + ": " + parts[len(parts)-1]
		}
	}

	return msg
}

package content

import "errors"

// ============================================================================
// Standard Content Store Errors
// ============================================================================

// Implementations wrap these with the offending ID:
//
//	return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
var (
	// ErrContentNotFound indicates the requested content does not exist.
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidContentID indicates the ContentID is empty or otherwise
	// unusable by the backend.
	ErrInvalidContentID = errors.New("invalid content ID")
)

// ValidateID rejects IDs no backend can store.
func ValidateID(id ContentID) error {
	if id == "" {
		return ErrInvalidContentID
	}
	return nil
}

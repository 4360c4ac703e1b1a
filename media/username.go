package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Reason explains why a filename could not be mapped to a username.
type Reason string

const (
	ReasonUnsupportedExtension Reason = "unsupported extension"
	ReasonNoSeparator          Reason = "no separator found"
	ReasonMissingNumericSuffix Reason = "missing numeric suffix"
	ReasonEmptyUsername        Reason = "empty username"
)

// ExtractionError is returned by ExtractUsername for filenames that do not
// follow the <username>_<digits>.<ext> layout.
type ExtractionError struct {
	Filename string
	Reason   Reason
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("cannot extract username from %q: %s", e.Filename, e.Reason)
}

// ExtractUsername returns the profile username encoded in a filename.
//
// The username is everything before the rightmost underscore whose suffix up
// to the extension is a non-empty run of digits, so "alana_moore_3839299832.jpg"
// yields "alana_moore" and "a_1_2.jpg" yields "a_1". Only the base name is
// considered; directories in the argument are ignored. A username made only
// of underscores counts as empty.
func ExtractUsername(filename string) (string, error) {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if !IsSupported(base) {
		return "", &ExtractionError{Filename: base, Reason: ReasonUnsupportedExtension}
	}
	stem := strings.TrimSuffix(base, ext)

	if !strings.Contains(stem, "_") {
		// a bare digit run is a suffix with nothing in front of it
		if isDigits(stem) {
			return "", &ExtractionError{Filename: base, Reason: ReasonEmptyUsername}
		}
		return "", &ExtractionError{Filename: base, Reason: ReasonNoSeparator}
	}

	split := -1
	for i := len(stem) - 1; i >= 0; i-- {
		if stem[i] != '_' {
			continue
		}
		if isDigits(stem[i+1:]) {
			split = i
			break
		}
	}
	if split < 0 {
		return "", &ExtractionError{Filename: base, Reason: ReasonMissingNumericSuffix}
	}
	if strings.Trim(stem[:split], "_") == "" {
		return "", &ExtractionError{Filename: base, Reason: ReasonEmptyUsername}
	}
	return stem[:split], nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

package lead

import (
	"regexp"
	"unicode/utf8"
)

const (
	minNameLen    = 2
	maxNameLen    = 80
	minContactLen = 5
	maxContactLen = 120

	// minDwellMillis is the shortest believable delay between the form
	// being shown and being submitted. Anything faster is treated as a bot.
	minDwellMillis = 2500
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	telegramPattern = regexp.MustCompile(`^@?[a-zA-Z0-9_]{5,32}$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9\s\-()]{10,18}$`)
)

// validName reports whether a trimmed name has an acceptable length.
func validName(name string) bool {
	// Rune count, not bytes: Cyrillic names are the common case here.
	n := utf8.RuneCountInString(name)
	return n >= minNameLen && n <= maxNameLen
}

// validContact reports whether a trimmed contact has an acceptable length
// and looks like an email address, a Telegram handle, or a phone number.
func validContact(contact string) bool {
	n := utf8.RuneCountInString(contact)
	if n < minContactLen || n > maxContactLen {
		return false
	}
	return emailPattern.MatchString(contact) ||
		telegramPattern.MatchString(contact) ||
		phonePattern.MatchString(contact)
}

// dwellTooShort implements the bot-speed heuristic: a missing form-open
// timestamp is treated the same as an instant submission.
func dwellTooShort(openedAt, submittedAt int64) bool {
	if openedAt == 0 {
		return true
	}
	return submittedAt-openedAt < minDwellMillis
}

package username

// DefaultMaxLength is the longest username Instagram accepts
const DefaultMaxLength = 30

// Validator checks candidate usernames before any network call.
type Validator struct {
	// MaxLength caps the username length; 0 disables the cap
	MaxLength int
}

// NewValidator returns a validator with the given length cap
func NewValidator(maxLength int) *Validator {
	if maxLength < 0 {
		maxLength = 0
	}
	return &Validator{MaxLength: maxLength}
}

// IsValid reports whether s is a well-formed username with the default length cap
func IsValid(s string) bool {
	return (&Validator{MaxLength: DefaultMaxLength}).Valid(s)
}

// Valid reports whether s is non-empty, made only of letters, digits, '.' and '_',
// and neither starts nor ends with '.'.
func (v *Validator) Valid(s string) bool {
	if s == "" {
		return false
	}
	if v.MaxLength > 0 && len(s) > v.MaxLength {
		return false
	}
	if s[0] == '.' || s[len(s)-1] == '.' {
		return false
	}

	for i := 0; i < len(s); i++ {
		if !isUsernameChar(s[i]) {
			return false
		}
	}
	return true
}

// Filter splits names into valid and skipped, preserving order
func (v *Validator) Filter(names []string) (valid, skipped []string) {
	valid = make([]string, 0, len(names))
	for _, name := range names {
		if v.Valid(name) {
			valid = append(valid, name)
		} else {
			skipped = append(skipped, name)
		}
	}
	return valid, skipped
}

// bytes outside ASCII are never valid, so a byte loop is enough
func isUsernameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '.' || c == '_'
}

package core

import "strings"

// AccountID identifies an account within a budget.
type AccountID string

// CategoryID identifies a category within a budget.
type CategoryID string

const (
	// NoAccount marks a transaction that intentionally has no account side.
	NoAccount AccountID = "no_account"
	// NoCategory marks a transaction that intentionally has no category side.
	NoCategory CategoryID = "no_category"
)

// IsSentinel reports whether id is the "no account" marker.
func (id AccountID) IsSentinel() bool { return id == NoAccount }

// IsSentinel reports whether id is the "no category" marker.
func (id CategoryID) IsSentinel() bool { return id == NoCategory }

func (id AccountID) String() string  { return string(id) }
func (id CategoryID) String() string { return string(id) }

// ParseAccountID maps stored spellings of the sentinel onto NoAccount.
func ParseAccountID(s string) AccountID {
	if isSentinelSpelling(s, "account") {
		return NoAccount
	}
	return AccountID(s)
}

// ParseCategoryID maps stored spellings of the sentinel onto NoCategory.
func ParseCategoryID(s string) CategoryID {
	if isSentinelSpelling(s, "category") {
		return NoCategory
	}
	return CategoryID(s)
}

func isSentinelSpelling(s, noun string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "no_" + noun, "no-" + noun, "no" + noun:
		return true
	}
	return false
}

// UnmarshalText normalises legacy sentinel spellings on decode.
func (id *AccountID) UnmarshalText(b []byte) error {
	*id = ParseAccountID(string(b))
	return nil
}

func (id AccountID) MarshalText() ([]byte, error) { return []byte(id), nil }

// UnmarshalText normalises legacy sentinel spellings on decode.
func (id *CategoryID) UnmarshalText(b []byte) error {
	*id = ParseCategoryID(string(b))
	return nil
}

func (id CategoryID) MarshalText() ([]byte, error) { return []byte(id), nil }

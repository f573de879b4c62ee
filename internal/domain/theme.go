package domain

// ThemePreference is the viewer's persisted theme choice. Unresolved is only
// ever observed before the preference store's one-time hydration; after
// hydration the value is always Light or Dark.
type ThemePreference string

const (
	ThemeUnresolved ThemePreference = "unresolved"
	ThemeLight      ThemePreference = "light"
	ThemeDark       ThemePreference = "dark"
)

// Concrete reports whether p is a value that may be persisted.
// Unresolved and transient system-detected values never are.
func (p ThemePreference) Concrete() bool {
	return p == ThemeLight || p == ThemeDark
}

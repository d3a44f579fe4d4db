package ui

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // 1-9 shortcuts, drawn in a different color
}

// Component is implemented by every page of the console.
type Component interface {
	// Name is the breadcrumb label.
	Name() string
	Hints() []MenuHint
}

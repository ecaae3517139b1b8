package indicator

// Host creates indicator items. Implemented by the embedding application.
type Host interface {
	// CreateItem creates a new, initially hidden, indicator item.
	CreateItem() (Item, error)
}

// Item is one visual indicator owned by the host.
type Item interface {
	// SetText sets the always-visible label.
	SetText(text string)

	// SetTooltip sets the secondary text.
	SetTooltip(text string)

	// SetCommand binds the bus endpoint invoked when the user activates the item.
	SetCommand(endpoint string)

	// Show makes the item visible.
	Show() error

	// Hide makes the item invisible without destroying it.
	Hide() error

	// Dispose destroys the item.
	Dispose() error
}

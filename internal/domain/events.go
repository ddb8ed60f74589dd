package domain

// Event names relayed to UI surfaces.
const (
	EventConfigUpdated    = "configUpdated"
	EventFavoritesUpdated = "favoritesUpdated"
)

// ForwardableEvent reports whether a UI surface may relay name to its peers.
func ForwardableEvent(name string) bool {
	return name == EventConfigUpdated || name == EventFavoritesUpdated
}

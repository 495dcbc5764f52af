package protocol

// WebSocket event names pushed from server to client.
const (
	EventConnected       = "connected"
	EventCatalogReloaded = "catalog.reloaded"
	EventConfigReloaded  = "config.reloaded"
	EventShutdown        = "shutdown"
)

package models

// MStats is the introspection snapshot exposed on the admin surface.
type MStats struct {
	ActiveConnections  int  `json:"activeConnections"`
	TotalSubscriptions int  `json:"totalSubscriptions"`
	UniqueSymbols      int  `json:"uniqueSymbols"`
	SchedulerActive    bool `json:"schedulerActive"`
	MarketOpen         bool `json:"marketOpen"`
}

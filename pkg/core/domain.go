// Package core holds the ports and business rules around blend persistence.
package core

import "time"

// BlendInfo describes a stored blend file.
type BlendInfo struct {
	Filename string  `json:"filename"`
	Size     int64   `json:"size,omitempty"`
	Modified float64 `json:"modified,omitempty"` // Unix seconds
}

// ModTime returns Modified as a time.
func (b BlendInfo) ModTime() time.Time {
	sec := int64(b.Modified)
	nsec := int64((b.Modified - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// Location tells where a saved blend ended up.
type Location string

const (
	LocationServer   Location = "server"
	LocationDownload Location = "download"
)

// SaveResult reports the outcome of Service.SaveBlend.
type SaveResult struct {
	Filename string   `json:"filename"`
	Location Location `json:"location"`
	Path     string   `json:"path,omitempty"`
}

// ServerType names the hosting mode detected for a store.
type ServerType string

const (
	ServerLocal  ServerType = "local"
	ServerStatic ServerType = "static"
)

// Features describes what the persistence side supports.
type Features struct {
	CanSaveToServer   bool       `json:"canSaveToServer"`
	CanLoadFromServer bool       `json:"canLoadFromServer"`
	ServerType        ServerType `json:"serverType"`
}

// StaticFeatures is the fallback when no server persistence exists.
var StaticFeatures = Features{CanLoadFromServer: true, ServerType: ServerStatic}

// EventType represents the type of change in the blend store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the blend store.
type Event struct {
	Type      EventType `json:"type"`
	Filename  string    `json:"filename"`
	Timestamp int64     `json:"timestamp"` // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + e.Filename
}

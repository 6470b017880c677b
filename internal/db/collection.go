package db

// Collection names.
const (
	Shipments  = "shipments"
	Products   = "products"
	Vehicles   = "vehicles"
	Categories = "categories"
	Messages   = "messages"
	Agents     = "agents"
	Users      = "users"
	Config     = "config"
)

// Collections lists every collection the store serves.
var Collections = []string{Shipments, Products, Vehicles, Categories, Messages, Agents, Users, Config}

// newestFirst reports whether List orders the collection by created_at descending.
func newestFirst(collection string) bool {
	return collection == Shipments || collection == Messages
}

// KnownCollection reports whether name is one of Collections.
func KnownCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

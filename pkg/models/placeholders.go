package models

// PlaceholdersMap maps placeholder keys to resolved string values. Later
// registrations overwrite earlier ones with the same key.
type PlaceholdersMap map[string]string

// Merge copies every entry of other into m, last write wins.
func (m PlaceholdersMap) Merge(other PlaceholdersMap) {
	for k, v := range other {
		m[k] = v
	}
}

// Clone returns a shallow copy of m.
func (m PlaceholdersMap) Clone() PlaceholdersMap {
	out := make(PlaceholdersMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

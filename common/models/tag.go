package models

// TagKind is the kind of an entry in the tag namespace
type TagKind string

const (
	TagKindUdtInstance TagKind = "UdtInstance"
	TagKindFolder      TagKind = "Folder"
	TagKindAtomic      TagKind = "AtomicTag"
)

// TagEntry is one immediate child returned by browsing a tag path
type TagEntry struct {
	Name     string  `json:"name"`
	FullPath string  `json:"fullPath"`
	Kind     TagKind `json:"tagType"`
	TypeID   string  `json:"typeId,omitempty"`
}

// Component is a UDT instance attached to a location
type Component struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TagDefinition is one node of an exported tag tree, as produced by the
// tag provider's JSON export. Folders carry their children in Tags.
type TagDefinition struct {
	Name    string          `json:"name"`
	TagType TagKind         `json:"tagType"`
	TypeID  string          `json:"typeId,omitempty"`
	Tags    []TagDefinition `json:"tags,omitempty"`
}

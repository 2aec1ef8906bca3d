// Package files models filesystem entries under the load directory and
// classifies them into sendable media records: media kind resolution,
// thumbnail/caption companion matching, and album bundle detection.
package files

import "time"

// MediaKind is the semantic kind of a file, resolved from its extension.
type MediaKind int

const (
	KindText MediaKind = iota
	KindImage
	KindAudio
	KindVideo
	KindDocument
	KindAnimation
)

func (k MediaKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindDocument:
		return "document"
	case KindAnimation:
		return "animation"
	}
	return "unknown"
}

// Record is one filesystem entry under consideration.
//
// A record claimed as a thumbnail or caption companion never appears as a
// top-level record; it is reachable only through its owner's Thumbnail or
// Caption field. Likewise a non-head bundle member is reachable only through
// the head's BundleMembers list.
type Record struct {
	Name    string
	Path    string
	Ext     string // lowercase, includes the dot
	ModTime time.Time

	Kind      MediaKind
	Thumbnail *Record
	Caption   *Record

	// Bundle metadata, set only on bundle members. BundleMembers is
	// populated on the head and always includes the head itself.
	BundleKey     string
	BundleIndex   int
	BundleMembers []*Record
}

// IsBundleHead reports whether the record owns a grouped-media bundle.
func (r *Record) IsBundleHead() bool {
	return len(r.BundleMembers) > 0
}

// FlattenPaths returns every file path this record accounts for: the file
// itself, its companions, and for bundle heads every member with its
// companions.
func (r *Record) FlattenPaths() []string {
	var out []string
	if r.IsBundleHead() {
		for _, m := range r.BundleMembers {
			out = m.appendOwnPaths(out)
		}
		return out
	}
	return r.appendOwnPaths(out)
}

func (r *Record) appendOwnPaths(out []string) []string {
	out = append(out, r.Path)
	if r.Thumbnail != nil {
		out = append(out, r.Thumbnail.Path)
	}
	if r.Caption != nil {
		out = append(out, r.Caption.Path)
	}
	return out
}

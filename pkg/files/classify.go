package files

import (
	"sort"

	"github.com/tinyland-inc/dropgram/pkg/logger"
)

// MaxBundleSize is the grouped-media item limit imposed by the chat API.
const MaxBundleSize = 10

// companionWindow is how many lexically-adjacent entries are scanned when
// matching thumbnails and captions. Companion names share the owner's base
// name, so on a name-sorted list they land within a few entries of the
// owner; the window is a shortcut over a full scan, not a correctness
// requirement.
const companionWindow = 4

// Classify decorates name-sorted records with media kinds, companion links,
// and bundle membership, and returns the top-level records. Companions and
// non-head bundle members are excluded from the result and reachable only
// through their owner.
func Classify(records []*Record) []*Record {
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	claimed := make(map[string]bool, len(records))
	bundles := make(map[string]*Record)

	out := make([]*Record, 0, len(records))
	for i, rec := range records {
		if claimed[rec.Name] {
			continue
		}

		rec.Kind = KindForExt(rec.Ext)
		if (rec.Kind == KindVideo || rec.Ext == ".gif") && hasAnimationSuffix(rec.Name, rec.Ext) {
			rec.Kind = KindAnimation
		}

		if rec.Kind != KindText {
			if thumb := findCompanion(records, i, claimed, thumbNames(rec.Name, rec.Ext)); thumb != nil {
				claimed[thumb.Name] = true
				rec.Thumbnail = thumb
			}
			if caption := findCompanion(records, i, claimed, captionNames(rec.Name, rec.Ext)); caption != nil {
				claimed[caption.Name] = true
				rec.Caption = caption
			}
		}

		if rec.Kind != KindText {
			if match, ok := ParseBundleName(rec.Name); ok {
				key := match.Key()
				if head, exists := bundles[key]; exists {
					if len(head.BundleMembers) >= MaxBundleSize {
						logger.WarnCF("classify", "Bundle is full, sending file as standalone message", map[string]any{
							"bundle": key,
							"name":   rec.Name,
						})
						out = append(out, rec)
						continue
					}
					rec.BundleKey = key
					rec.BundleIndex = match.Fine
					head.BundleMembers = append(head.BundleMembers, rec)
					continue
				}
				rec.BundleKey = key
				rec.BundleIndex = match.Fine
				rec.BundleMembers = []*Record{rec}
				bundles[key] = rec
			}
		}

		out = append(out, rec)
	}
	return out
}

// findCompanion scans the next companionWindow entries after index i for a
// file whose name matches one of the candidate names. Already-claimed files
// are not taken twice.
func findCompanion(records []*Record, i int, claimed map[string]bool, candidates []string) *Record {
	end := i + companionWindow
	if end > len(records)-1 {
		end = len(records) - 1
	}
	for j := i + 1; j <= end; j++ {
		if claimed[records[j].Name] {
			continue
		}
		for _, name := range candidates {
			if records[j].Name == name {
				return records[j]
			}
		}
	}
	return nil
}

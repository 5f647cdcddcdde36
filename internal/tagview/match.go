package tagview

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dukerupert/shiftline/internal/model"
)

// maxDepth bounds the structural search over segment attributes.
const maxDepth = 8

// idKeys are the attribute keys that may carry a tag id in loosely shaped
// segment records.
var idKeys = []string{"id", "tagId", "tag_id", "entityId", "entity_id"}

// Matches reports whether seg references tagID. A direct TagID decides when
// set, then the embedded Tag, and only then a search of Attrs.
func Matches(seg model.Segment, tagID string) bool {
	if seg.TagID != nil && strings.TrimSpace(*seg.TagID) != "" {
		return SameID(*seg.TagID, tagID)
	}
	if seg.Tag != nil && strings.TrimSpace(seg.Tag.ID) != "" {
		return SameID(seg.Tag.ID, tagID)
	}
	return searchAttrs(seg.Attrs, tagID, 0)
}

// SameID compares ids that may arrive as strings or JSON numbers, ignoring
// surrounding whitespace. Empty values never match.
func SameID(v any, id string) bool {
	s, ok := idString(v)
	if !ok {
		return false
	}
	id = strings.TrimSpace(id)
	if s == "" || id == "" {
		return false
	}
	if s == id {
		return true
	}

	a, errA := strconv.ParseFloat(s, 64)
	b, errB := strconv.ParseFloat(id, 64)
	return errA == nil && errB == nil && a == b
}

func idString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprint(x), true
	case *string:
		if x == nil {
			return "", false
		}
		return strings.TrimSpace(*x), true
	}
	return "", false
}

func searchAttrs(v any, tagID string, depth int) bool {
	if depth > maxDepth {
		return false
	}

	switch x := v.(type) {
	case map[string]any:
		for _, k := range idKeys {
			if val, ok := x[k]; ok && SameID(val, tagID) {
				return true
			}
		}
		for _, val := range x {
			if searchAttrs(val, tagID, depth+1) {
				return true
			}
		}
	case []any:
		for _, val := range x {
			if searchAttrs(val, tagID, depth+1) {
				return true
			}
		}
	}
	return false
}

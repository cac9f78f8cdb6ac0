package gridgo

import "sort"

// Tags are free-form labels attached to any element. They are normalized the
// same way free-form property keys are, so "  Red " and "red" collide.

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if n := normalizeKey(tag); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// tagElement adds tags to an element. Reports whether any tag was new.
// Caller holds the owning lock.
func tagElement(e *element, tags []string) bool {
	added := false
	for _, tag := range normalizeTags(tags) {
		set := e.tagSet(true)
		if _, ok := set[tag]; !ok {
			set[tag] = struct{}{}
			added = true
		}
	}
	return added
}

// untagElement removes tags. Reports whether any tag was present.
func untagElement(e *element, tags []string) bool {
	set := e.tagSet(false)
	if set == nil {
		return false
	}
	removed := false
	for _, tag := range normalizeTags(tags) {
		if _, ok := set[tag]; ok {
			delete(set, tag)
			removed = true
		}
	}
	return removed
}

// tagsOf returns the element's tags, sorted for stable output.
func tagsOf(e *element) []string {
	set := e.tagSet(false)
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func hasAllTags(e *element, tags []string) bool {
	norm := normalizeTags(tags)
	if len(norm) == 0 {
		return false
	}
	set := e.tagSet(false)
	if set == nil {
		return false
	}
	for _, tag := range norm {
		if _, ok := set[tag]; !ok {
			return false
		}
	}
	return true
}

func hasAnyTags(e *element, tags []string) bool {
	set := e.tagSet(false)
	if set == nil {
		return false
	}
	for _, tag := range normalizeTags(tags) {
		if _, ok := set[tag]; ok {
			return true
		}
	}
	return false
}

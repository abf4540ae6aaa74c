package router

import (
	"path"
	"sort"
	"strings"
)

// =============================================================================
// Slot Validation
// =============================================================================

// candidate is a parsed entry competing for one slot of the tree.
type candidate struct {
	entry *ParsedEntry
	kind  ConflictKind
	slot  string
	rank  int
}

// Validator groups parsed entries by the slot they occupy (URL shape for
// leaves, folder for descriptors) and reports entries that compete for a
// slot at equal specificity.
type Validator struct {
	platform string
	slots    map[string][]candidate
	order    []string

	// fallbacks marks slots holding an entry without a platform extension;
	// variants lists the platform-specific entries per slot.
	fallbacks map[string]bool
	variants  map[string][]*ParsedEntry
}

// NewValidator creates a validator selecting platform variants for platform.
func NewValidator(platform string) *Validator {
	return &Validator{
		platform:  normalizePlatform(platform),
		slots:     make(map[string][]candidate),
		fallbacks: make(map[string]bool),
		variants:  make(map[string][]*ParsedEntry),
	}
}

// Add registers a parsed entry. Entries whose platform extension does not
// apply to the validator's platform take no slot, but still need a
// fallback sibling without a platform extension.
func (v *Validator) Add(pe *ParsedEntry) {
	c := candidate{entry: pe, rank: platformRank(pe.Platform, v.platform)}
	switch pe.Leaf.Marker {
	case MarkerLayout:
		c.kind, c.slot = ConflictLayout, dirPath(pe.Dirs)
	case MarkerMiddleware:
		c.kind, c.slot = ConflictMiddleware, dirPath(pe.Dirs)
	case MarkerNotFound:
		c.kind, c.slot = ConflictNotFound, shape(pe.Dirs)
	default:
		c.kind = ConflictPage
		if pe.isAPI() {
			c.kind = ConflictAPI
		}
		c.slot = shape(pe.URLSegments())
	}
	key := string(c.kind) + "\x00" + c.slot
	if pe.Platform == "" {
		v.fallbacks[key] = true
	} else {
		v.variants[key] = append(v.variants[key], pe)
	}

	if c.rank < 0 {
		return
	}
	if _, ok := v.slots[key]; !ok {
		v.order = append(v.order, key)
	}
	v.slots[key] = append(v.slots[key], c)
}

// Resolve returns the winning candidate of every slot, or the errors. A
// slot is won by its highest platform rank; two source files sharing that
// rank conflict. Expansions of one array-group entry do not conflict with
// each other: the first declared group wins. A platform variant without a
// fallback sibling is an error.
func (v *Validator) Resolve() ([]candidate, []error) {
	var (
		winners []candidate
		errs    []error
	)

	missing := make([]string, 0, len(v.variants))
	for key := range v.variants {
		if !v.fallbacks[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	for _, key := range missing {
		reported := make(map[string]bool)
		for _, pe := range v.variants[key] {
			if reported[pe.Source] {
				continue
			}
			reported[pe.Source] = true
			errs = append(errs, grammarErr(pe.Source, path.Base(pe.Source),
				"platform file has no fallback sibling without a platform extension"))
		}
	}

	keys := append([]string(nil), v.order...)
	sort.Strings(keys)
	for _, key := range keys {
		if !v.fallbacks[key] {
			continue
		}
		top := topCandidates(v.slots[key])
		if len(top) > 1 {
			entries := make([]string, len(top))
			for i, c := range top {
				entries[i] = c.entry.Source
			}
			sort.Strings(entries)
			errs = append(errs, &RouteConflictError{
				Pattern: top[0].slot,
				Kind:    top[0].kind,
				Entries: entries,
			})
			continue
		}
		winners = append(winners, top[0])
	}
	return winners, errs
}

// topCandidates returns the candidates of the highest rank, one per source
// file.
func topCandidates(cands []candidate) []candidate {
	best := -1
	for _, c := range cands {
		best = max(best, c.rank)
	}
	var top []candidate
	bySource := make(map[string]int)
	for _, c := range cands {
		if c.rank != best {
			continue
		}
		if i, ok := bySource[c.entry.Source]; ok {
			if c.entry.expansion < top[i].entry.expansion {
				top[i] = c
			}
			continue
		}
		bySource[c.entry.Source] = len(top)
		top = append(top, c)
	}
	return top
}

// shape renders the URL-contributing segments with parameter names erased:
// ":" for dynamic, "*" for catch-all, "**" for optional catch-all.
func shape(segs []Segment) string {
	var parts []string
	for _, s := range segs {
		switch s.Kind {
		case KindStatic:
			parts = append(parts, s.Raw)
		case KindDynamic:
			parts = append(parts, ":")
		case KindCatchAll:
			parts = append(parts, "*")
		case KindOptionalCatchAll:
			parts = append(parts, "**")
		}
	}
	return "/" + strings.Join(parts, "/")
}

// pattern renders the URL-contributing segments as declared.
func pattern(segs []Segment) string {
	var parts []string
	for _, s := range segs {
		if s.Kind.contributesURL() {
			parts = append(parts, s.Raw)
		}
	}
	return "/" + strings.Join(parts, "/")
}

// dirPath renders directory segments back to their folder path.
func dirPath(dirs []Segment) string {
	parts := make([]string, len(dirs))
	for i, d := range dirs {
		parts[i] = d.Raw
		if d.Mode != "" {
			parts[i] += "+" + string(d.Mode)
		}
	}
	return strings.Join(parts, "/")
}

// normalizePlatform maps the server and unset platforms to web.
func normalizePlatform(p string) string {
	switch p {
	case "", "server":
		return "web"
	}
	return p
}

// platformRank scores an entry's platform extension against the target:
// exact 2, native on ios/android 1, none 0, anything else -1 (excluded).
func platformRank(entry, target string) int {
	switch {
	case entry == "":
		return 0
	case entry == target:
		return 2
	case entry == "native" && (target == "ios" || target == "android"):
		return 1
	}
	return -1
}

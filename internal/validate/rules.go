// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// maxGroup is the highest crypt group.
const maxGroup = 7

var groupSuffix = regexp.MustCompile(`g[1-7]$`)

type unparsedRule struct{}

func (unparsedRule) Name() string { return "unparsed" }

func (unparsedRule) Check(r types.Record) []Finding {
	if r.Kind() != types.KindUnparsed {
		return nil
	}
	return []Finding{{Status: types.StatusWarning, Reason: "unrecognized line"}}
}

type quantityRule struct {
	maxCopies int
}

func (quantityRule) Name() string { return "quantity" }

func (q quantityRule) Check(r types.Record) []Finding {
	c, ok := r.Card()
	if !ok {
		return nil
	}
	switch {
	case c.Quantity < 1:
		return []Finding{{Status: types.StatusRejected, Reason: fmt.Sprintf("quantity %d is below 1", c.Quantity)}}
	case q.maxCopies > 0 && c.Quantity > q.maxCopies:
		return []Finding{{Status: types.StatusWarning, Reason: fmt.Sprintf("quantity %d exceeds %d copies", c.Quantity, q.maxCopies)}}
	}
	return nil
}

type nameRule struct{}

func (nameRule) Name() string { return "name" }

func (nameRule) Check(r types.Record) []Finding {
	c, ok := r.Card()
	if !ok || c.ImageName != "" {
		return nil
	}
	return []Finding{{Status: types.StatusRejected, Reason: fmt.Sprintf("card name %q has no usable characters", c.Name)}}
}

// catalogRule resolves card images. Crypt cards without an explicit group
// are looked up under g1 to g7: one hit resolves the image, several are
// ambiguous.
type catalogRule struct {
	catalog Catalog
}

func (catalogRule) Name() string { return "catalog" }

func (cr catalogRule) Check(r types.Record) []Finding {
	c, ok := r.Card()
	if !ok || c.ImageName == "" {
		return nil
	}
	key := c.ImageName

	if c.Section != types.SectionCrypt || groupSuffix.MatchString(key) {
		if cr.catalog.Has(key) {
			return []Finding{{Status: types.StatusValid, ImageName: key}}
		}
		return []Finding{cr.unknown(c)}
	}

	found := cr.groupKeys(key)
	switch len(found) {
	case 0:
		if cr.catalog.Has(key) {
			return []Finding{{Status: types.StatusValid, ImageName: key}}
		}
		return []Finding{cr.unknown(c)}
	case 1:
		return []Finding{{Status: types.StatusValid, ImageName: found[0]}}
	default:
		groups := make([]string, len(found))
		for i, k := range found {
			groups[i] = k[len(key):]
		}
		return []Finding{{
			Status: types.StatusRejected,
			Reason: fmt.Sprintf("ambiguous crypt group for %q: %s", c.Name, strings.Join(groups, ", ")),
		}}
	}
}

// groupKeys returns the grouped keys known for a crypt base key, ascending.
func (cr catalogRule) groupKeys(base string) []string {
	var found []string
	if gl, ok := cr.catalog.(GroupLister); ok {
		groups, err := gl.Groups(base)
		if err == nil {
			for _, g := range groups {
				found = append(found, fmt.Sprintf("%sg%d", base, g))
			}
			return found
		}
	}
	for g := 1; g <= maxGroup; g++ {
		if k := fmt.Sprintf("%sg%d", base, g); cr.catalog.Has(k) {
			found = append(found, k)
		}
	}
	return found
}

func (cr catalogRule) unknown(c types.CardEntry) Finding {
	reason := fmt.Sprintf("no image for %q", c.Name)
	if s, ok := cr.catalog.Suggest(c.Name); ok && !strings.EqualFold(s, c.Name) {
		reason += fmt.Sprintf(", did you mean %q?", s)
	}
	return Finding{Status: types.StatusWarning, Reason: reason}
}

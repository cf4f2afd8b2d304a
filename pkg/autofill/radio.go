package autofill

import (
	"fmt"
	"strings"

	"github.com/entrhq/autoapply/pkg/dom"
)

const radioSelector = `input[type="radio"]`

// ResolveRadioMember locates one member of the radio group belonging to
// a question label. The caller derives the full group with RadioGroup.
func (r *Resolver) ResolveRadioMember(container dom.Element, labels ...string) dom.Element {
	for _, wanted := range labels {
		for _, labelEl := range r.matchingLabels(container, wanted) {
			if m := r.radioForLabel(labelEl); m != nil {
				return m
			}
		}
	}
	return nil
}

func (r *Resolver) radioForLabel(labelEl dom.Element) dom.Element {
	if forID := labelEl.Attr("for"); forID != "" {
		if el := r.doc.Query(fmt.Sprintf(`input[type="radio"][id=%q]`, forID)); el != nil {
			return el
		}
	}
	if el := labelEl.Query(radioSelector); el != nil {
		return el
	}
	node := labelEl
	for level := 0; level < maxAncestorLevels; level++ {
		node = node.Parent()
		if node == nil {
			return nil
		}
		if el := node.Query(radioSelector); el != nil {
			return el
		}
	}
	return nil
}

// RadioGroup derives the full group a member belongs to: by shared name
// when the member has one, otherwise by a bounded ancestor scan for
// sibling radios.
func (r *Resolver) RadioGroup(member dom.Element) []dom.Element {
	if member == nil {
		return nil
	}
	if name := member.Attr("name"); name != "" {
		group := r.doc.QueryAll(fmt.Sprintf(`input[type="radio"][name=%q]`, name))
		if len(group) > 0 {
			return group
		}
	}

	node := member
	for level := 0; level < maxAncestorLevels; level++ {
		parent := node.Parent()
		if parent == nil {
			break
		}
		node = parent
		if group := node.QueryAll(radioSelector); len(group) > 1 {
			return group
		}
	}
	return []dom.Element{member}
}

// RadioLabel builds the human-readable label of a group member through
// the ordered fallback chain: explicit label[for] association, enclosing
// label, sibling text, accessibility label, raw option value.
func (r *Resolver) RadioLabel(member dom.Element) string {
	if id := member.Attr("id"); id != "" {
		if lab := r.doc.Query(fmt.Sprintf(`label[for=%q]`, id)); lab != nil {
			if text := lab.Text(); text != "" {
				return text
			}
		}
	}

	node := member.Parent()
	for level := 0; level < maxAncestorLevels && node != nil; level++ {
		if node.Tag() == "label" {
			if text := node.Text(); text != "" {
				return text
			}
			break
		}
		node = node.Parent()
	}

	if sib := member.NextSibling(); sib != nil {
		if text := sib.Text(); text != "" {
			return text
		}
	}

	if aria := strings.TrimSpace(member.Attr("aria-label")); aria != "" {
		return aria
	}

	return member.Attr("value")
}

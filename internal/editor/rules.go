package editor

import (
	"github.com/dshills/folio/internal/engine/schema"
)

// Element names registered by DefaultRules.
const (
	Paragraph  = "paragraph"
	Heading1   = "heading1"
	Heading2   = "heading2"
	Heading3   = "heading3"
	Blockquote = "blockquote"
	Image      = "image"
)

// TextAttributes are the formatting keys DefaultRules allow on text.
var TextAttributes = []string{"bold", "italic", "underline", "code"}

// DefaultRules describes the schema used when the configuration declares
// no rules of its own.
func DefaultRules() schema.RuleSet {
	return schema.RuleSet{
		Items: []schema.ItemSpec{
			{Name: Paragraph, Base: schema.Block},
			{Name: Heading1, Base: schema.Block},
			{Name: Heading2, Base: schema.Block},
			{Name: Heading3, Base: schema.Block},
			{Name: Blockquote, Base: schema.Block},
			{Name: Image, Base: schema.Inline},
		},
		Allow: []schema.Rule{
			{Name: schema.Text, Inside: schema.Block, Attributes: TextAttributes},
			{Name: Image, Inside: schema.Block, Attributes: []string{"src", "alt"}},
		},
		Disallow: []schema.Rule{
			{Name: schema.Text, Inside: Heading1, Attributes: []string{"bold"}},
		},
	}
}

// BuildSchema creates a schema from rs, falling back to DefaultRules when
// rs is empty. A *schema.RuleErrors comes back together with a usable
// schema holding every entry that could be loaded.
func BuildSchema(rs schema.RuleSet) (*schema.Schema, error) {
	if rs.IsEmpty() {
		rs = DefaultRules()
	}
	return schema.FromRules(rs)
}

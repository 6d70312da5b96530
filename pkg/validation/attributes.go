package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Attribute is one released attribute. Each value becomes its own
// cas:<Name> element inside cas:attributes.
type Attribute struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// AttributeReleaser decides which extension attributes accompany a success response
type AttributeReleaser interface {
	Release(model Model) ([]Attribute, error)
}

// StaticAttributes releases the same attributes for every response
type StaticAttributes []Attribute

// Release returns a copy of the fixed attributes
func (s StaticAttributes) Release(Model) ([]Attribute, error) {
	out := make([]Attribute, len(s))
	copy(out, s)
	return out, nil
}

// PrincipalAttributeReleaser releases the named principal attributes, in
// allow-list order. Attributes the principal does not have are skipped.
type PrincipalAttributeReleaser struct {
	Allowed []string
}

// Release implements AttributeReleaser
func (r PrincipalAttributeReleaser) Release(model Model) ([]Attribute, error) {
	principal, err := model.Principal()
	if err != nil {
		return nil, err
	}

	var released []Attribute
	for _, name := range r.Allowed {
		values, ok := principal.Attributes[name]
		if !ok || len(values) == 0 {
			continue
		}
		released = append(released, Attribute{Name: name, Values: append([]string(nil), values...)})
	}
	return released, nil
}

// Element names already used by the fixed attributes
var reservedAttributeNames = map[string]bool{
	"isFromNewLogin":                         true,
	"authenticationDate":                     true,
	"longTermAuthenticationRequestTokenUsed": true,
}

// ASCII subset of the XML NCName production
var ncNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

func validateAttribute(attr Attribute) error {
	if !ncNamePattern.MatchString(attr.Name) {
		return fmt.Errorf("%w: attribute name %q is not a valid element name", ErrInvalidModelData, attr.Name)
	}
	if reservedAttributeNames[attr.Name] {
		return fmt.Errorf("%w: attribute name %q is reserved", ErrInvalidModelData, attr.Name)
	}
	for i, v := range attr.Values {
		if err := validateText(fmt.Sprintf("attribute %s[%d]", attr.Name, i), v); err != nil {
			return err
		}
	}
	return nil
}

// validateText rejects values the encoder would not write verbatim.
// Invalid UTF-8 and runes outside the XML Char production are replaced by
// the encoder, and a carriage return is read back as a line feed.
func validateText(field, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidModelData, field)
	}
	for i, r := range s {
		if !isXMLChar(r) || r == '\r' {
			return fmt.Errorf("%w: %s has disallowed character %U at byte %d", ErrInvalidModelData, field, r, i)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	switch {
	case r == 0x09 || r == 0x0A || r == 0x0D:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

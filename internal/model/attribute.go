package model

import "fmt"

// Attribute is a character attribute that items can influence.
type Attribute int32

const (
	AttributeCharisma Attribute = iota
	AttributeConstitution
	AttributeDefense
	AttributeDexterity
	AttributeIntelligence
	AttributeLuck
	AttributePerception
	AttributeStrength
	AttributeWillpower
	AttributeWisdom
	attributeCount
)

var attributeNames = [attributeCount]string{
	"charisma",
	"constitution",
	"defense",
	"dexterity",
	"intelligence",
	"luck",
	"perception",
	"strength",
	"willpower",
	"wisdom",
}

// AllAttributes returns every attribute in declaration order.
func AllAttributes() []Attribute {
	out := make([]Attribute, 0, attributeCount)
	for a := range attributeCount {
		out = append(out, a)
	}
	return out
}

// Valid reports whether a is one of the declared attributes.
func (a Attribute) Valid() bool {
	return a >= 0 && a < attributeCount
}

// String returns the lower-case attribute name.
func (a Attribute) String() string {
	if !a.Valid() {
		return fmt.Sprintf("UNKNOWN(%d)", int32(a))
	}
	return attributeNames[a]
}

// ParseAttribute parses the name produced by Attribute.String.
func ParseAttribute(s string) (Attribute, error) {
	for i, name := range attributeNames {
		if name == s {
			return Attribute(i), nil
		}
	}
	return 0, fmt.Errorf("unknown attribute %q", s)
}

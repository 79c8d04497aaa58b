package itemgen

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/udisondev/rpgcore/internal/model"
)

// NameSource supplies display names for non-weapon items.
type NameSource interface {
	Name() string
}

// NameFunc adapts a plain function to NameSource.
type NameFunc func() string

func (f NameFunc) Name() string { return f() }

var (
	plainAdjectives = []string{
		"ancient", "brave", "crooked", "dusty", "elder", "faded", "gilded", "hollow",
		"iron", "jagged", "knotted", "lucky", "mossy", "noble", "odd", "pale",
		"quiet", "rusty", "silent", "tattered", "umber", "velvet", "weathered", "young",
	}
	plainNouns = []string{
		"acorn", "bell", "candle", "drum", "ember", "feather", "goblet", "horn",
		"idol", "jar", "key", "lantern", "mirror", "needle", "orb", "pouch",
		"quill", "relic", "scroll", "totem", "urn", "vial", "whistle", "yarn",
	}
)

type plainNames struct {
	src   Source
	title cases.Caser
}

// NewPlainNames returns the default NameSource: an adjective and a noun
// drawn uniformly from fixed word lists, title-cased ("Mossy Lantern").
func NewPlainNames(src Source) NameSource {
	return &plainNames{src: src, title: cases.Title(language.English)}
}

func (p *plainNames) Name() string {
	adjective := uniform(p.src, plainAdjectives)
	noun := uniform(p.src, plainNouns)
	return p.title.String(adjective + " " + noun)
}

// weaponName builds "<Prefix> <Noun> of <Suffix>".
func weaponName(src Source) string {
	noun := uniform(src, weaponNouns)
	prefix := uniform(src, weaponPrefixes)
	suffix := uniform(src, weaponSuffixes)
	return fmt.Sprintf("%s %s of %s", prefix, noun, suffix)
}

func itemName(src Source, names NameSource, category model.ItemCategory) string {
	if category.IsWeapon() {
		return weaponName(src)
	}
	return names.Name()
}

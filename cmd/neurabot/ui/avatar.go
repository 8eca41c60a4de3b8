package ui

import "sort"

// avatarGlyphs maps avatar type names to the glyph shown next to the
// user's messages.
var avatarGlyphs = map[string]string{
	"person": "👤",
	"robot":  "🤖",
	"cat":    "🐱",
	"fox":    "🦊",
	"alien":  "👽",
	"ghost":  "👻",
}

// DefaultAvatar is used until the user picks one.
const DefaultAvatar = "person"

// AvatarGlyph returns the glyph for an avatar type. Unknown types get the
// default glyph.
func AvatarGlyph(kind string) string {
	if g, ok := avatarGlyphs[kind]; ok {
		return g
	}
	return avatarGlyphs[DefaultAvatar]
}

// ValidAvatar reports whether kind names a known avatar type.
func ValidAvatar(kind string) bool {
	_, ok := avatarGlyphs[kind]
	return ok
}

// AvatarTypes lists the available avatar types in stable order.
func AvatarTypes() []string {
	kinds := make([]string, 0, len(avatarGlyphs))
	for kind := range avatarGlyphs {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

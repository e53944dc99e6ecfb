package menu

import (
	"path"
	"strings"
)

// ItemType is the single character that classifies a menu line.
type ItemType byte

const (
	TypeDocument ItemType = '0'
	TypeSubmenu  ItemType = '1'
	TypeImage    ItemType = 'I'
	TypeAudio    ItemType = 's'
	TypeGIF      ItemType = 'g'
	TypeInfo     ItemType = 'i'
	TypeHTML     ItemType = 'h'
)

func (t ItemType) String() string {
	return string(rune(t))
}

// TypeForSelector infers the item type from the extension of the selector's
// last element. It depends on nothing but the name.
func TypeForSelector(selector string) ItemType {
	switch strings.ToLower(path.Ext(selector)) {
	case ".jpg", ".png":
		return TypeImage
	case ".mp3":
		return TypeAudio
	case ".gif":
		return TypeGIF
	default:
		return TypeDocument
	}
}

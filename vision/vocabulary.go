// Package vision tags roster images with a fixed attribute vocabulary, either
// through a remote vision model or through a deterministic local stand-in.
package vision

import (
	"encoding/json"
	"strings"
)

type Category string

const (
	CategoryHairColor    Category = "hair_color"
	CategorySkinTone     Category = "skin_tone"
	CategoryClothingType Category = "clothing_type"
	CategoryPoseType     Category = "pose_type"
	CategoryEnvironment  Category = "environment"
	CategoryFaceVisible  Category = "face_visible"
)

// Other is the escape value every enumerated category accepts.
const Other = "other"

// EnumCategories lists the string-valued categories in prompt order.
var EnumCategories = []Category{
	CategoryHairColor,
	CategorySkinTone,
	CategoryClothingType,
	CategoryPoseType,
	CategoryEnvironment,
}

var vocabulary = map[Category][]string{
	CategoryHairColor:    {"blonde", "brown", "black", "red", "dyed", Other},
	CategorySkinTone:     {"light", "medium", "deep", Other},
	CategoryClothingType: {"sports bra", "leggings", "shorts", "bikini", "dress", "tank top", "crop top", Other},
	CategoryPoseType:     {"mirror selfie", "side pose", "front pose", "action pose", "sitting", "standing", Other},
	CategoryEnvironment:  {"gym", "home", "beach", "studio", "outdoor", "indoor", Other},
}

// Values returns a copy of the allowed values of an enumerated category.
func Values(c Category) []string {
	return append([]string(nil), vocabulary[c]...)
}

// Vocabulary returns every category with its allowed values, face_visible included.
func Vocabulary() map[Category][]string {
	out := make(map[Category][]string, len(vocabulary)+1)
	for c := range vocabulary {
		out[c] = Values(c)
	}
	out[CategoryFaceVisible] = []string{"true", "false"}
	return out
}

// IsAllowed reports whether value belongs to the category's vocabulary.
func IsAllowed(c Category, value string) bool {
	for _, v := range vocabulary[c] {
		if v == value {
			return true
		}
	}
	return false
}

// TagSet is one validated value per category.
type TagSet struct {
	HairColor    string `json:"hair_color" yaml:"hair_color"`
	SkinTone     string `json:"skin_tone" yaml:"skin_tone"`
	ClothingType string `json:"clothing_type" yaml:"clothing_type"`
	PoseType     string `json:"pose_type" yaml:"pose_type"`
	Environment  string `json:"environment" yaml:"environment"`
	FaceVisible  bool   `json:"face_visible" yaml:"face_visible"`
}

// Get returns the value of an enumerated category.
func (t TagSet) Get(c Category) string {
	switch c {
	case CategoryHairColor:
		return t.HairColor
	case CategorySkinTone:
		return t.SkinTone
	case CategoryClothingType:
		return t.ClothingType
	case CategoryPoseType:
		return t.PoseType
	case CategoryEnvironment:
		return t.Environment
	}
	return ""
}

func (t *TagSet) set(c Category, value string) {
	switch c {
	case CategoryHairColor:
		t.HairColor = value
	case CategorySkinTone:
		t.SkinTone = value
	case CategoryClothingType:
		t.ClothingType = value
	case CategoryPoseType:
		t.PoseType = value
	case CategoryEnvironment:
		t.Environment = value
	}
}

// RawTags is an unvalidated response payload keyed by category name.
type RawTags map[string]any

// Normalize validates a raw payload field by field. Missing, malformed or
// out-of-vocabulary values become Other; face_visible is true only for a
// boolean true or the string "true".
func Normalize(raw RawTags) TagSet {
	var tags TagSet
	for _, c := range EnumCategories {
		tags.set(c, normalizeEnum(c, raw[string(c)]))
	}
	tags.FaceVisible = normalizeBool(raw[string(CategoryFaceVisible)])
	return tags
}

func normalizeEnum(c Category, value any) string {
	s, ok := value.(string)
	if !ok {
		return Other
	}
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if IsAllowed(c, s) {
		return s
	}
	return Other
}

func normalizeBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

// ParseRawTags extracts the first JSON object from model output, tolerating
// markdown code fences and surrounding prose.
func ParseRawTags(text string) (RawTags, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	var raw RawTags
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, false
	}
	return raw, true
}

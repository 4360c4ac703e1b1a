package vision

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camden-git/rostertagger/models"
)

// ErrInvalidTags is returned by Validate when a manual edit is incomplete or out of vocabulary.
var ErrInvalidTags = errors.New("invalid tags")

// Validate checks a manual edit strictly: every category must be present and
// allowed. Values are folded the same way Normalize folds them.
func Validate(raw RawTags) (TagSet, error) {
	var bad []string
	for _, c := range EnumCategories {
		if normalizeEnum(c, raw[string(c)]) == Other && !isOther(raw[string(c)]) {
			bad = append(bad, string(c))
		}
	}
	switch v := raw[string(CategoryFaceVisible)].(type) {
	case bool:
	case string:
		if s := strings.ToLower(strings.TrimSpace(v)); s != "true" && s != "false" {
			bad = append(bad, string(CategoryFaceVisible))
		}
	default:
		bad = append(bad, string(CategoryFaceVisible))
	}
	if len(bad) > 0 {
		return TagSet{}, fmt.Errorf("%w: %s", ErrInvalidTags, strings.Join(bad, ", "))
	}
	return Normalize(raw), nil
}

func isOther(v any) bool {
	s, ok := v.(string)
	return ok && strings.EqualFold(strings.TrimSpace(s), Other)
}

// Raw converts a tag set back into a payload keyed by category name.
func (t TagSet) Raw() RawTags {
	raw := RawTags{string(CategoryFaceVisible): t.FaceVisible}
	for _, c := range EnumCategories {
		raw[string(c)] = t.Get(c)
	}
	return raw
}

// TagSetOf reads the tag values stored on a row.
func TagSetOf(tag *models.Tag) TagSet {
	return TagSet{
		HairColor:    tag.HairColor,
		SkinTone:     tag.SkinTone,
		ClothingType: tag.ClothingType,
		PoseType:     tag.PoseType,
		Environment:  tag.Environment,
		FaceVisible:  tag.FaceVisible,
	}
}

// Record builds the row to store for an image.
func (r Result) Record(imageID uint) *models.Tag {
	return &models.Tag{
		ImageID:      imageID,
		HairColor:    r.Tags.HairColor,
		SkinTone:     r.Tags.SkinTone,
		ClothingType: r.Tags.ClothingType,
		PoseType:     r.Tags.PoseType,
		Environment:  r.Tags.Environment,
		FaceVisible:  r.Tags.FaceVisible,
		Source:       r.Source,
		DateTagged:   time.Now(),
	}
}

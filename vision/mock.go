package vision

import "crypto/sha256"

// MockTags derives a plausible tag set from an image reference. The same
// reference always yields the same tags and every value is in the vocabulary.
func MockTags(ref string) TagSet {
	sum := sha256.Sum256([]byte(ref))
	var tags TagSet
	for i, c := range EnumCategories {
		// Other is last in each list and is never picked.
		values := vocabulary[c][:len(vocabulary[c])-1]
		tags.set(c, values[int(sum[i])%len(values)])
	}
	tags.FaceVisible = sum[len(EnumCategories)]%4 != 0
	return tags
}

package vision

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the fixed tagging instruction from the vocabulary.
func BuildPrompt() string {
	var b strings.Builder
	b.WriteString("Analyze this image of a fictional AI-generated model and provide tags for the following categories.\n")
	b.WriteString("Assume the subject is fictional and over 18. Focus only on visible, objective attributes.\n\n")
	b.WriteString("Respond with a single JSON object containing these fields:\n")
	for _, c := range EnumCategories {
		fmt.Fprintf(&b, "- %s: one of %s\n", c, quoteList(vocabulary[c]))
	}
	fmt.Fprintf(&b, "- %s: true or false (is the face clearly visible?)\n\n", CategoryFaceVisible)
	b.WriteString("Rules:\n")
	b.WriteString("- No subjective judgments about attractiveness or body size\n")
	b.WriteString("- No ethnic or other sensitive attribute analysis\n")
	fmt.Fprintf(&b, "- Choose %q when uncertain\n", Other)
	return b.String()
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

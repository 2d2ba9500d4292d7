package ai

import (
	"fmt"

	"github.com/abadojack/whatlanggo"
)

// DetectLanguage returns the English name of the prompt language,
// or an empty string when the detection is not reliable.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.String()
}

// Instructions asks the model to answer in the language of the prompt.
func Instructions(language string) string {
	if language == "" {
		return ""
	}
	return fmt.Sprintf("Reply in %s.", language)
}

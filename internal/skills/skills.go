// Package skills canonicalizes skill terms so that spelling variants
// like "React.js", "ReactJS" and "react" gate and match consistently.
package skills

import (
	"strings"
)

// aliases maps common variants to their canonical form. Keys are the
// lowercased, punctuation-trimmed spelling of the variant.
var aliases = map[string]string{
	"ml":           "machine learning",
	"js":           "javascript",
	"ts":           "typescript",
	"py":           "python",
	"c#":           "csharp",
	"c++":          "cpp",
	"golang":       "go",
	"k8s":          "kubernetes",
	"react.js":     "react",
	"reactjs":      "react",
	"node":         "nodejs",
	"node.js":      "nodejs",
	"node js":      "nodejs",
	"postgres":     "postgresql",
	"pg":           "postgresql",
	"mongo":        "mongodb",
	"gcp":          "google cloud platform",
	"google cloud": "google cloud platform",
	"html5":        "html",
	"css3":         "css",
	"tf":           "tensorflow",
	"sklearn":      "scikit-learn",
	"scikit learn": "scikit-learn",
	"llm":          "large language models",
	"llms":         "large language models",
	"genai":        "generative ai",
	"gen ai":       "generative ai",
}

// Normalize lowercases, trims and canonicalizes one skill term.
// Normalizing an already canonical term returns it unchanged.
func Normalize(term string) string {
	t := strings.ToLower(strings.TrimSpace(term))
	t = strings.TrimRight(t, ".,;:")
	t = strings.TrimSpace(t)

	if canonical, ok := aliases[t]; ok {
		return canonical
	}
	return t
}

// NormalizeAll normalizes every term, dropping empties and duplicates
// while preserving first-seen order.
func NormalizeAll(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(terms))
	result := make([]string, 0, len(terms))
	for _, term := range terms {
		n := Normalize(term)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}

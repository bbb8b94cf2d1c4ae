package feed

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lincza/albuild/pkg/model"
)

var wordRuns = regexp.MustCompile(`\w+`)

// CleanComponent collapses free-form text into an AppSource-style identifier
// segment: each run of word characters is title-cased and the runs are joined
// with everything in between dropped. "Linc Communications (Pty) Ltd" becomes
// "LincCommunicationsPtyLtd".
func CleanComponent(text string) string {
	var b strings.Builder
	for _, word := range wordRuns.FindAllString(text, -1) {
		first, size := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(first))
		b.WriteString(strings.ToLower(word[size:]))
	}
	return b.String()
}

// QueryCandidates returns the ordered search queries tried for a dependency.
// The most specific form comes first and duplicates keep their first position.
func QueryCandidates(dep model.Dependency) []string {
	publisher := CleanComponent(dep.Publisher)
	name := CleanComponent(dep.Name)

	candidates := make([]string, 0, 4)
	if dep.ID != "" {
		candidates = append(candidates, fmt.Sprintf("%s.%s.symbols.%s", publisher, name, dep.ID))
	}
	candidates = append(candidates,
		fmt.Sprintf("%s.%s.symbols", publisher, name),
		fmt.Sprintf("%s.%s", publisher, name),
		rawStyleCandidate(dep),
	)
	return dedupe(candidates)
}

// rawStyleCandidate preserves the original casing and only strips separator
// characters, matching packages published before the title-case naming form.
func rawStyleCandidate(dep model.Dependency) string {
	publisher := strings.NewReplacer(" ", "", "(", "", ")", "", ".", "").Replace(dep.Publisher)
	name := strings.ReplaceAll(dep.Name, " ", "")
	return publisher + "." + name + ".symbols"
}

func dedupe(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	unique := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		unique = append(unique, candidate)
	}
	return unique
}

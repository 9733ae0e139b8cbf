package clipper

import (
	"bytes"
	_ "embed"
	"errors"
	"strings"
	"text/template"
)

//go:embed extractor_prompt.md
var extractorPrompt string

var promptTemplate = template.Must(template.New("extractor").Parse(extractorPrompt))

func buildPrompt(src Source) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, src); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var errNoJSONObject = errors.New("no JSON object found in response")

// extractJSONPayload pulls the JSON object out of a model reply that may be
// wrapped in a code fence or surrounded by prose.
func extractJSONPayload(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.Trim(cleaned, "`")
		if _, rest, ok := strings.Cut(cleaned, "\n"); ok {
			cleaned = strings.TrimSpace(rest)
		}
	}
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return "", errNoJSONObject
	}
	return cleaned[start : end+1], nil
}

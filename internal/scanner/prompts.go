package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/airadar/citation-bot/internal/models"
)

var fullTemplates = []string{
	"What are the best {keyword}?",
	"Can you recommend some top {keyword} for {year}?",
	"What {keyword} do experts recommend?",
	"Compare the most popular {keyword}",
	"What are the leading {keyword} in the market?",
}

// lite keeps the three broadest questions
var liteTemplates = []string{
	fullTemplates[0],
	fullTemplates[2],
	fullTemplates[4],
}

// GeneratePrompts instantiates the template set of a cadence for keyword
func GeneratePrompts(keyword string, cadence models.Cadence) ([]string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}

	var templates []string
	switch cadence {
	case models.CadenceFull, "":
		templates = fullTemplates
	case models.CadenceLite:
		templates = liteTemplates
	default:
		return nil, fmt.Errorf("unknown cadence %q", cadence)
	}

	r := strings.NewReplacer("{keyword}", keyword, "{year}", strconv.Itoa(time.Now().Year()))
	prompts := make([]string, len(templates))
	for i, tmpl := range templates {
		prompts[i] = r.Replace(tmpl)
	}
	return prompts, nil
}

// ParseCadence maps user input to a cadence, defaulting to full
func ParseCadence(value string) (models.Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(models.CadenceFull):
		return models.CadenceFull, nil
	case string(models.CadenceLite):
		return models.CadenceLite, nil
	default:
		return "", fmt.Errorf("unknown cadence %q", value)
	}
}

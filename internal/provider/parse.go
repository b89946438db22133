package provider

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
)

// ParseResponse normalizes a raw provider reply. It first looks for a JSON
// object substring (between the first '{' and the last '}') and falls back
// to line-oriented heuristics when no parseable JSON is present. Parse
// degradation is not an error: a default-filled identification is returned
// instead.
func ParseResponse(content string) *Identification {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		var id Identification
		if err := json.Unmarshal([]byte(content[start:end+1]), &id); err == nil {
			clampConfidence(&id)
			return &id
		}
	}

	log.Println("provider: failed to parse JSON response, using fallback parser")
	return parseTextResponse(content)
}

// parseTextResponse scans lines for "band", "genre" and "confidence"
// tokens followed by a separator and extracts the trailing value.
// Unmatched fields keep their defaults.
func parseTextResponse(content string) *Identification {
	id := &Identification{
		BandName:    "Unknown",
		Genre:       "Metal",
		Confidence:  50,
		Description: "Could not parse response properly",
	}

	for _, line := range strings.Split(content, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(line, ":") {
			continue
		}
		value := strings.TrimSpace(line[strings.LastIndex(line, ":")+1:])

		switch {
		case strings.Contains(lower, "band"):
			if value != "" {
				id.BandName = value
			}
		case strings.Contains(lower, "genre"):
			if value != "" {
				id.Genre = value
			}
		case strings.Contains(lower, "confidence"):
			if n := extractDigits(value); n != "" {
				if conf, err := strconv.ParseFloat(n, 64); err == nil {
					id.Confidence = conf
				}
			}
		}
	}

	clampConfidence(id)
	return id
}

func extractDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clampConfidence(id *Identification) {
	if id.Confidence < 0 {
		id.Confidence = 0
	}
	if id.Confidence > 100 {
		id.Confidence = 100
	}
}

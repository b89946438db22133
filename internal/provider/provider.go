// Package provider implements clients for vision-capable LLM backends.
//
// Every backend is driven through the same one-method capability: send the
// fixed recognition prompt plus an inline base64 image, get back an
// Identification. Transport and auth failures surface as errors; a result
// is only ever fabricated when the backend answered but not in the
// expected structured form (see parse.go).
package provider

import "context"

// recognitionPrompt is the fixed instruction sent with every image.
const recognitionPrompt = `You are an expert in metal music and band logos. Analyze this metal band logo and provide:

1. The band name (be as accurate as possible)
2. The music genre/subgenre (e.g., Black Metal, Death Metal, Doom Metal, etc.)
3. Your confidence level (0-100)
4. A brief description of the logo style

Respond in JSON format:
{
    "band_name": "Band Name",
    "genre": "Genre",
    "confidence": 85,
    "description": "Brief description of the logo"
}

If you cannot identify the band, still provide your best guess with low confidence.`

// Identification is the normalized answer extracted from a provider
// response. Confidence is clamped to [0,100] by the parser.
type Identification struct {
	BandName    string  `json:"band_name"`
	Genre       string  `json:"genre"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// Client is the uniform capability over heterogeneous vision backends.
type Client interface {
	// Name identifies the backend (e.g. "openai", "anthropic").
	Name() string
	// ModelID is the model charged for calls through this client.
	ModelID() string
	// Configured reports whether credentials are present. Unconfigured
	// clients are skipped by the fallback chain without counting as a
	// failure.
	Configured() bool
	// Identify sends the image (base64-encoded) to the backend and
	// returns the normalized identification.
	Identify(ctx context.Context, base64Image string) (*Identification, error)
}

// Chain returns the configured clients from the given preference order.
// The recognition service tries them strictly in sequence, first success
// wins.
func Chain(clients ...Client) []Client {
	var configured []Client
	for _, c := range clients {
		if c.Configured() {
			configured = append(configured, c)
		}
	}
	return configured
}

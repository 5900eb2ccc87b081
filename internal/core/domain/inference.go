package domain

// DecodingParams are the fixed sampling settings sent with every inference request.
type DecodingParams struct {
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

func DefaultDecoding() DecodingParams {
	return DecodingParams{
		MaxTokens:   8192,
		Temperature: 0.5,
		TopP:        0.9,
	}
}

func (p DecodingParams) IsZero() bool {
	return p == DecodingParams{}
}

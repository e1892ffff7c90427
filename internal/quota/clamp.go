package quota

// Hard server-side ceiling on max_tokens for a single completion request
const MaxTokensPerRequest = 512

// Clamps the client's requested max_tokens into [1, MaxTokensPerRequest].
// The client is never trusted to self-limit; a missing value gets the full
// ceiling.
func ClampMaxTokens(requested *int) int {
	if requested == nil {
		return MaxTokensPerRequest
	}

	v := *requested
	if v < 1 {
		v = 1
	}
	if v > MaxTokensPerRequest {
		v = MaxTokensPerRequest
	}

	return v
}

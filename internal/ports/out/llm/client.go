package llm

import "context"

// Client is the narrow surface consumed from the language-model provider.
// Prompt construction and the chat wire format live behind the
// implementation; callers see plain inputs and outputs only.
type Client interface {
	// DescribeImage turns an image reference into a short descriptor text.
	DescribeImage(ctx context.Context, imageRef string) (string, error)

	// ExtractKeywords pulls search keywords out of free text.
	ExtractKeywords(ctx context.Context, freeText string) ([]string, error)

	// MatchReasons produces one reason line per candidate café name,
	// explaining why it matches the caller's picks for the destination.
	MatchReasons(ctx context.Context, candidateNames []string, destination string) ([]string, error)
}

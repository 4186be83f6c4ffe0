package notify

import "context"

// Outcome summarizes one send to many devices
type Outcome struct {
	Success int
	Failure int
	// Tokens the provider reported as permanently undeliverable
	InvalidTokens []string
}

type Notifier interface {
	SendToMany(ctx context.Context, tokens []string, title string, body string, data map[string]string) (*Outcome, error)
}

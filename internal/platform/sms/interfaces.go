package sms

import "context"

// Result reports a dispatch outcome. Delivery is best-effort: a failed send
// is captured here and never aborts the caller's success path.
type Result struct {
	Sent     bool
	Provider string
	Detail   string
}

type Sender interface {
	Send(ctx context.Context, phone, text string) Result
}

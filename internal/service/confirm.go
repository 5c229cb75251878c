package service

import "context"

type confirmKey struct{}

// WithConfirmation records the caller's answer in ctx for ContextConfirmer.
func WithConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, confirmed)
}

// Confirmation returns the answer stored by WithConfirmation. ok is false
// when the caller gave none.
func Confirmation(ctx context.Context) (confirmed, ok bool) {
	confirmed, ok = ctx.Value(confirmKey{}).(bool)
	return confirmed, ok
}

// ContextConfirmer approves exactly when the context carries a positive
// answer from WithConfirmation. Hosts that cannot prompt, such as the HTTP
// API, use it to pass a confirm flag through.
var ContextConfirmer Confirmer = ConfirmFunc(func(ctx context.Context, _ string) (bool, error) {
	ok, _ := Confirmation(ctx)
	return ok, nil
})

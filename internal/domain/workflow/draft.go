package workflow

import "context"

type itemCountKey struct{}

// WithItemCount attaches the number of items a COMPOSE would place on the draft
func WithItemCount(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, itemCountKey{}, n)
}

func hasItems(ctx context.Context) bool {
	n, _ := ctx.Value(itemCountKey{}).(int)
	return n > 0
}

// NewDraftMachine builds the invoice draft lifecycle starting with no draft.
//
//	NO_DRAFT      --COMPOSE-->  DRAFT_PENDING
//	DRAFT_PENDING --COMPOSE-->  DRAFT_PENDING   (replaces the draft)
//	DRAFT_PENDING --CONFIRM-->  NO_DRAFT
//	DRAFT_PENDING --DISCARD-->  NO_DRAFT
//
// COMPOSE is guarded on a positive item count (see WithItemCount) and fails
// with ErrGuardFailed otherwise, leaving any pending draft in place. CONFIRM
// and DISCARD are not permitted without a draft; callers treat that as a
// no-op.
func NewDraftMachine() StateMachine {
	b := NewBuilder()

	b.Configure(StateNoDraft).
		PermitIf(TriggerCompose, StateDraftPending, hasItems)

	b.Configure(StateDraftPending).
		PermitIf(TriggerCompose, StateDraftPending, hasItems).
		Permit(TriggerConfirm, StateNoDraft).
		Permit(TriggerDiscard, StateNoDraft)

	return b.Build(StateNoDraft)
}

package service

import (
	"context"

	"bistro/catalog"
	"bistro/infra/sequence"

	"go.uber.org/zap"
)

/*
ResumeSequence moves seqGen past every sequence number already in the
ledger, so new orders never reuse an id after a restart.

IMPORTANT:
- This MUST run before accepting traffic
*/
func ResumeSequence(ctx context.Context, store *catalog.Store, seqGen *sequence.Sequencer, log *zap.Logger) (uint64, error) {
	lastSeq, err := store.LastSeq(ctx)
	if err != nil {
		return 0, err
	}

	// Resume sequencing AFTER the ledger
	seqGen.Reset(lastSeq)

	if log != nil {
		log.Info("order sequence resumed", zap.Uint64("last_seq", lastSeq))
	}
	return lastSeq, nil
}

// Copyright 2022 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package mapper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/optakt/account-indexer/models/activity"
)

// Transitions is what applies transitions to the state of an FSM.
type Transitions struct {
	cfg     Config
	log     zerolog.Logger
	address activity.Address
	source  activity.Source
	history activity.History
	decode  activity.Decoder
	read    activity.Reader
	write   activity.Writer
}

// NewTransitions returns a Transitions component using the given dependencies
// and using the given options.
func NewTransitions(log zerolog.Logger, address activity.Address, source activity.Source, history activity.History, decode activity.Decoder, read activity.Reader, write activity.Writer, options ...Option) *Transitions {

	cfg := DefaultConfig
	for _, option := range options {
		option(&cfg)
	}

	t := Transitions{
		cfg:     cfg,
		log:     log.With().Str("component", "mapper_transitions").Logger(),
		address: address,
		source:  source,
		history: history,
		decode:  decode,
		read:    read,
		write:   write,
	}

	return &t
}

// InitializeMapper initializes the mapper by inspecting the on-disk index. A
// fresh index goes straight into backfilling, while an existing one resumes
// from its checkpoint first.
func (t *Transitions) InitializeMapper(s *State) error {
	if s.status != StatusInitialize {
		return fmt.Errorf("invalid status for initializing mapper (%s)", s.status)
	}

	_, err := t.read.Checkpoint(t.address)
	if errors.Is(err, activity.ErrNotFound) {
		t.log.Info().Msg("no checkpoint found, starting fresh index")
		s.status = StatusBackfill
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not retrieve checkpoint: %w", err)
	}

	s.status = StatusResume
	return nil
}

// ResumeIndexing re-arms the live subscription at the stored checkpoint, so
// that records delivered while the process was down are covered by the
// backfill that follows.
func (t *Transitions) ResumeIndexing(s *State) error {
	if s.status != StatusResume {
		return fmt.Errorf("invalid status for resuming indexing (%s)", s.status)
	}

	checkpoint, err := t.read.Checkpoint(t.address)
	if err != nil {
		return fmt.Errorf("could not retrieve checkpoint: %w", err)
	}

	err = t.source.Restart(checkpoint.Last)
	if err != nil {
		return fmt.Errorf("could not restart source: %w", err)
	}

	t.log.Info().
		Uint64("slot", checkpoint.Last.Slot).
		Uint32("index", checkpoint.Last.Index).
		Msg("resuming from checkpoint")

	s.status = StatusBackfill
	return nil
}

// BackfillHistory pages through the wallet's transaction history down to the
// stored checkpoint and sequences the resulting events oldest first. Records
// also delivered by the live subscription in the meantime are harmless, as
// the sequencer deduplicates them by content hash. Transient upstream errors
// keep the machine in the backfill status so that the transition is retried.
func (t *Transitions) BackfillHistory(s *State) error {
	if s.status != StatusBackfill {
		return fmt.Errorf("invalid status for backfilling history (%s)", s.status)
	}

	floor := uint64(0)
	checkpoint, err := t.read.Checkpoint(t.address)
	if err != nil && !errors.Is(err, activity.ErrNotFound) {
		return fmt.Errorf("could not retrieve checkpoint: %w", err)
	}
	if err == nil {
		floor = checkpoint.Last.Slot
	}

	signatures, err := t.collectSignatures(floor)
	if err != nil {
		t.log.Warn().Err(err).Msg("could not collect signatures, retrying")
		time.Sleep(t.cfg.WaitInterval)
		return nil
	}

	t.log.Info().
		Uint64("floor", floor).
		Int("signatures", len(signatures)).
		Msg("backfilling transaction history")

	// The listing is newest first; replay it oldest first so that events are
	// sequenced in canonical order. Positions restart per slot, matching the
	// assignment of the live subscription.
	slot := uint64(0)
	seq := uint32(0)
	for i := len(signatures) - 1; i >= 0; i-- {
		info := signatures[i]
		if info.Slot != slot {
			slot = info.Slot
			seq = 0
		}
		position := seq * activity.PositionStride
		seq++

		record, err := t.history.Record(context.Background(), info.Signature, position)
		if errors.Is(err, activity.ErrUnavailable) {
			t.log.Warn().Str("signature", info.Signature).Msg("transaction not available yet, retrying backfill")
			time.Sleep(t.cfg.WaitInterval)
			return nil
		}
		if err != nil {
			t.log.Warn().Err(err).Str("signature", info.Signature).Msg("could not fetch transaction, retrying backfill")
			time.Sleep(t.cfg.WaitInterval)
			return nil
		}

		events, err := t.decode.Decode(record)
		if err != nil {
			t.log.Warn().Err(err).Str("signature", info.Signature).Msg("could not decode record, skipping")
			continue
		}

		for index := range events {
			err = t.sequenceEvent(s, &events[index])
			if err != nil {
				return fmt.Errorf("could not sequence event: %w", err)
			}
		}

		// A conflict during backfill means the stored tail is no longer
		// canonical; resolve it before replaying further history.
		if s.status == StatusResync {
			return nil
		}
	}

	s.status = StatusLive
	return nil
}

// ProcessRecord processes one record from the live subscription, if one is
// available. A continuity gap or an ordering conflict switches the machine
// into resynchronization.
func (t *Transitions) ProcessRecord(s *State) error {
	if s.status != StatusLive {
		return fmt.Errorf("invalid status for processing record (%s)", s.status)
	}

	record, err := t.source.Next()
	if errors.Is(err, activity.ErrUnavailable) {
		time.Sleep(t.cfg.WaitInterval)
		return nil
	}
	if errors.Is(err, activity.ErrGap) {
		t.log.Warn().Msg("delivery continuity lost, resynchronizing")
		s.status = StatusResync
		return nil
	}
	if errors.Is(err, activity.ErrFinished) {
		return activity.ErrFinished
	}
	if err != nil {
		return fmt.Errorf("could not get next record: %w", err)
	}

	events, err := t.decode.Decode(record)
	if err != nil {
		t.log.Warn().Err(err).Str("signature", record.Signature).Msg("could not decode record, skipping")
		return nil
	}

	for index := range events {
		err = t.sequenceEvent(s, &events[index])
		if err != nil {
			return fmt.Errorf("could not sequence event: %w", err)
		}
	}

	return nil
}

// Resynchronize restores a consistent index after a gap or a chain
// reorganization. With no pending events, the interruption was a gap and the
// machine goes back to backfilling from the checkpoint. With pending events,
// the canonical replacements are already in hand: the stored tail is
// retracted down to the divergence point and the replacements are applied in
// ascending order, newest delivery winning for each ordering key. Either way
// the machine goes back through backfilling, since the interruption may have
// cut a history replay short; the backfill deduplicates what was already
// applied and moves to live once it reaches the head.
func (t *Transitions) Resynchronize(s *State) error {
	if s.status != StatusResync {
		return fmt.Errorf("invalid status for resynchronizing (%s)", s.status)
	}

	if len(s.pending) == 0 {
		last := activity.ZeroKey
		checkpoint, err := t.read.Checkpoint(t.address)
		if err != nil && !errors.Is(err, activity.ErrNotFound) {
			return fmt.Errorf("could not retrieve checkpoint: %w", err)
		}
		if err == nil {
			last = checkpoint.Last
		}
		err = t.source.Restart(last)
		if err != nil {
			return fmt.Errorf("could not restart source: %w", err)
		}
		s.status = StatusBackfill
		return nil
	}

	checkpoint, err := t.read.Checkpoint(t.address)
	if err != nil {
		return fmt.Errorf("could not retrieve checkpoint: %w", err)
	}

	// Keep the newest delivery for each ordering key; on a reorganization the
	// replacement arrives after the version it supersedes.
	canonical := make(map[activity.Key]activity.Event, len(s.pending))
	divergence := s.pending[0].Key
	for _, event := range s.pending {
		canonical[event.Key] = event
		if event.Key.Before(divergence) {
			divergence = event.Key
		}
	}

	depth := checkpoint.Depth(divergence)
	if !divergence.After(checkpoint.Last) && depth == len(checkpoint.Window) {
		// The whole window rolls back, which is only sound if the window
		// still reaches back to the very first event of the index.
		first, err := t.read.First(t.address)
		if err != nil {
			return fmt.Errorf("could not retrieve first: %w", err)
		}
		if len(checkpoint.Window) == 0 || divergence.Before(checkpoint.Window[0].Key) && checkpoint.Window[0].Key != first {
			return fmt.Errorf("reorganization exceeds checkpoint window (divergence: %s, last: %s)", divergence, checkpoint.Last)
		}
	}

	t.log.Info().
		Str("divergence", divergence.String()).
		Int("depth", depth).
		Int("pending", len(canonical)).
		Msg("resolving chain reorganization")

	for i := 0; i < depth; i++ {
		entry := checkpoint.Window[len(checkpoint.Window)-1-i]
		err = t.write.Retract(t.address, entry.Key)
		if err != nil {
			return fmt.Errorf("could not retract event (key: %s): %w", entry.Key, err)
		}
	}

	keys := make([]activity.Key, 0, len(canonical))
	for key := range canonical {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i int, j int) bool {
		return keys[i].Before(keys[j])
	})

	// The writer drops re-deliveries on its own, so replacements that were
	// already applied are harmless here.
	for _, key := range keys {
		event := canonical[key]
		err = t.write.Apply(&event)
		if err != nil {
			return fmt.Errorf("could not apply event (key: %s): %w", event.Key, err)
		}
	}

	s.pending = s.pending[:0]
	s.status = StatusBackfill
	return nil
}

// sequenceEvent routes one decoded event. Re-deliveries are dropped, events
// that extend the tail are applied and events that conflict with the stored
// tail are buffered for resynchronization.
func (t *Transitions) sequenceEvent(s *State, event *activity.Event) error {

	checkpoint, err := t.read.Checkpoint(event.Address)
	if errors.Is(err, activity.ErrNotFound) {
		checkpoint = &activity.Checkpoint{}
	} else if err != nil {
		return fmt.Errorf("could not retrieve checkpoint: %w", err)
	}

	if checkpoint.Seen(event.Hash) {
		t.log.Debug().
			Str("hash", event.Hash.String()).
			Str("key", event.Key.String()).
			Msg("skipping re-delivered event")
		return nil
	}

	if s.status == StatusResync || checkpoint.Conflicts(event.Key, event.Hash) {
		s.pending = append(s.pending, *event)
		s.status = StatusResync
		return nil
	}

	err = t.write.Apply(event)
	if err != nil {
		return fmt.Errorf("could not apply event (key: %s): %w", event.Key, err)
	}

	t.log.Debug().
		Str("key", event.Key.String()).
		Uint64("amount", event.Amount).
		Str("direction", event.Direction.String()).
		Msg("applied event")

	return nil
}

// collectSignatures pages through the signature listing newest first until
// the listing is exhausted or reaches below the given floor slot. Failed
// transactions are skipped, as they cannot have moved any funds.
func (t *Transitions) collectSignatures(floor uint64) ([]activity.SignatureInfo, error) {

	var signatures []activity.SignatureInfo
	before := ""
	for {
		page, err := t.history.Signatures(context.Background(), t.address, before, t.cfg.PageSize)
		if err != nil {
			return nil, fmt.Errorf("could not list signatures: %w", err)
		}
		if len(page) == 0 {
			break
		}

		done := false
		for _, info := range page {
			if info.Slot < floor {
				done = true
				break
			}
			if info.Failed {
				continue
			}
			signatures = append(signatures, info)
		}
		if done || uint(len(page)) < t.cfg.PageSize {
			break
		}

		before = page[len(page)-1].Signature
		time.Sleep(t.cfg.PageDelay)
	}

	return signatures, nil
}

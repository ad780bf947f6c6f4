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

package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/optakt/account-indexer/models/activity"
)

// Subscriber implements the `activity.Source` interface. It owns the live
// websocket subscription to the upstream node, fetches the full record for
// every notification that mentions the tracked account and buffers the
// records in a bounded queue for the sequencer to consume.
//
// The upstream subscription protocol has no delivery acknowledgment, so the
// subscriber cannot pause the upstream when the queue is full; instead it
// drops the overflowing record and raises a gap, forcing the sequencer to
// resynchronize from its checkpoint. The same happens whenever the
// connection is lost, since notifications sent while disconnected are gone
// for good.
type Subscriber struct {
	log     zerolog.Logger
	url     string
	address activity.Address
	history activity.History

	mutex   sync.Mutex
	queue   *deque.Deque
	gapped  bool
	started bool
	from    uint64
	slot    uint64
	seq     uint32

	limit   int
	retries uint

	stop chan struct{}
	done chan struct{}
}

// DefaultQueueLimit is the default capacity of the record queue between the
// subscriber and the sequencer.
const DefaultQueueLimit = 1024

// New creates a new subscriber for activity of the given account, connecting
// to the websocket endpoint at the given URL and completing notifications
// through the given history endpoint.
func New(log zerolog.Logger, url string, address activity.Address, history activity.History, options ...func(*Subscriber)) *Subscriber {

	s := Subscriber{
		log:     log.With().Str("component", "subscriber").Logger(),
		url:     url,
		address: address,
		history: history,
		queue:   deque.New(),
		limit:   DefaultQueueLimit,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// WithQueueLimit sets the capacity of the record queue.
func WithQueueLimit(limit int) func(*Subscriber) {
	return func(s *Subscriber) {
		s.limit = limit
	}
}

// WithMaxRetries caps the number of consecutive reconnection attempts. The
// default of zero retries forever.
func WithMaxRetries(retries uint) func(*Subscriber) {
	return func(s *Subscriber) {
		s.retries = retries
	}
}

// Run connects to the upstream node and keeps the subscription alive until
// the subscriber is stopped, reconnecting with exponential backoff on
// connection loss. It returns an error only when the configured retry cap is
// exhausted.
func (s *Subscriber) Run() error {
	defer close(s.done)

	var attempts uint
	backoff := initialBackoff
	for {
		select {
		case <-s.stop:
			return nil
		default:
		}

		err := s.subscribe()
		if err == nil {
			// Clean shutdown through Stop.
			return nil
		}

		// Anything delivered between connection loss and resubscription is
		// lost, so the sequencer has to resynchronize.
		s.mutex.Lock()
		if s.started {
			s.gapped = true
		}
		s.mutex.Unlock()

		attempts++
		if s.retries != 0 && attempts > s.retries {
			return fmt.Errorf("could not keep subscription alive (attempts: %d): %w", attempts, err)
		}

		s.log.Warn().Err(err).Dur("backoff", backoff).Msg("subscription lost, reconnecting")

		select {
		case <-s.stop:
			return nil
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
}

// Next returns the next buffered record. It returns ErrGap exactly once
// after delivery continuity was lost, ErrUnavailable while the queue is
// empty and ErrFinished once the subscriber has been stopped and the queue
// has been drained.
func (s *Subscriber) Next() (*activity.RawRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.gapped {
		s.gapped = false
		return nil, activity.ErrGap
	}

	if s.queue.Len() == 0 {
		select {
		case <-s.done:
			return nil, activity.ErrFinished
		default:
			return nil, activity.ErrUnavailable
		}
	}

	record := s.queue.PopFront().(*activity.RawRecord)
	return record, nil
}

// Restart re-arms the subscription from the given checkpoint position. Any
// buffered records are discarded, along with a pending gap signal; the
// sequencer is expected to have caught up to the given key through the
// history endpoint.
func (s *Subscriber) Restart(from activity.Key) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.from = from.Slot
	s.gapped = false
	s.queue.Clear()

	return nil
}

// Stop shuts the subscriber down, closing the upstream connection.
func (s *Subscriber) Stop(ctx context.Context) error {
	close(s.stop)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// subscribe opens one websocket connection, subscribes to notifications for
// the tracked account and consumes notifications until the connection fails
// or the subscriber is stopped.
func (s *Subscriber) subscribe() error {

	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	if err != nil {
		return fmt.Errorf("could not dial upstream: %w", err)
	}
	defer conn.Close()

	// Closing the connection is the only way to interrupt a blocking read.
	closed := make(chan struct{})
	defer close(closed)
	go func() {
		select {
		case <-s.stop:
			conn.Close()
		case <-closed:
		}
	}()

	request := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "logsSubscribe",
		"params": []interface{}{
			map[string]interface{}{"mentions": []string{s.address.String()}},
			map[string]interface{}{"commitment": "confirmed"},
		},
	}
	err = conn.WriteJSON(request)
	if err != nil {
		return fmt.Errorf("could not subscribe: %w", err)
	}

	s.mutex.Lock()
	s.started = true
	s.mutex.Unlock()

	s.log.Info().Str("address", s.address.String()).Msg("subscription established")

	for {
		select {
		case <-s.stop:
			return nil
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stop:
				return nil
			default:
			}
			return fmt.Errorf("could not read message: %w", err)
		}

		err = s.process(message)
		if err != nil {
			s.log.Error().Err(err).Msg("could not process notification")
			continue
		}
	}
}

// process handles one websocket message, fetching the full record for
// transaction notifications and buffering it for the sequencer.
func (s *Subscriber) process(message []byte) error {

	var notification struct {
		Method string `json:"method"`
		Params struct {
			Result struct {
				Context struct {
					Slot uint64 `json:"slot"`
				} `json:"context"`
				Value struct {
					Signature string      `json:"signature"`
					Err       interface{} `json:"err"`
				} `json:"value"`
			} `json:"result"`
		} `json:"params"`
	}
	err := json.Unmarshal(message, &notification)
	if err != nil {
		return fmt.Errorf("could not unmarshal notification: %w", err)
	}

	// Subscription confirmations and other control messages carry no method.
	if notification.Method != "logsNotification" {
		return nil
	}

	slot := notification.Params.Result.Context.Slot
	value := notification.Params.Result.Value
	if value.Err != nil {
		return nil
	}

	s.mutex.Lock()
	from := s.from
	if slot != s.slot {
		s.slot = slot
		s.seq = 0
	}
	position := s.seq * activity.PositionStride
	s.seq++
	s.mutex.Unlock()

	if slot < from {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	record, err := s.history.Record(ctx, value.Signature, position)
	if err != nil {
		// The record is lost; continuity can only be restored by a resync.
		s.mutex.Lock()
		s.gapped = true
		s.mutex.Unlock()
		return fmt.Errorf("could not fetch record (signature: %s): %w", value.Signature, err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.queue.Len() >= s.limit {
		s.gapped = true
		return fmt.Errorf("record queue full (limit: %d), dropping record", s.limit)
	}
	s.queue.PushBack(record)

	return nil
}

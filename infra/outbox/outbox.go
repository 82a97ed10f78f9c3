package outbox

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

// Record is one durable outbox entry: delivery bookkeeping plus the
// encoded event payload.
type Record struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Event       *Event
}

// value encoding: [state:1][retries:4][lastAttempt:8][framed payload]
func encodeValue(state State, retries uint32, lastAttempt int64, payload []byte) []byte {
	buf := make([]byte, 13, 13+len(payload))
	buf[0] = byte(state)
	putUint32LE(buf[1:5], retries)
	putUint64LE(buf[5:13], uint64(lastAttempt))
	return append(buf, payload...)
}

func decodeValue(seq uint64, b []byte) (*Record, []byte, error) {
	if len(b) < 13 {
		return nil, nil, errors.New("outbox: invalid record length")
	}
	payload := b[13:]
	ev, err := DecodeEvent(payload)
	if err != nil {
		return nil, nil, err
	}
	return &Record{
		Seq:         seq,
		State:       State(b[0]),
		Retries:     readUint32LE(b[1:5]),
		LastAttempt: int64(readUint64LE(b[5:13])),
		Event:       ev,
	}, payload, nil
}

// -------------------- Outbox --------------------

// Outbox is the durable hand-off between the engine and the bus. The
// engine never reads it back; it exists purely so a crash between a state
// transition and its broadcast cannot lose the event.
type Outbox struct {
	db   *pebble.DB
	next atomic.Uint64
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // we WANT durability
	})
	if err != nil {
		return nil, err
	}

	ob := &Outbox{db: db}

	// Resume the key sequence past whatever is already on disk.
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	if iter.Last() && iter.Valid() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			iter.Close()
			db.Close()
			return nil, err
		}
		ob.next.Store(seq)
	}
	if err := iter.Close(); err != nil {
		db.Close()
		return nil, err
	}
	return ob, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// -------------------- API --------------------

// Append stores a new event in state NEW and returns its sequence.
func (o *Outbox) Append(ev *Event) (uint64, error) {
	seq := o.next.Add(1)
	val := encodeValue(StateNew, 0, 0, EncodeEvent(ev))
	if err := o.db.Set(keyFor(seq), val, pebble.Sync); err != nil {
		return 0, err
	}
	return seq, nil
}

// MarkSent flips a record to SENT and bumps its retry count.
func (o *Outbox) MarkSent(seq uint64) error {
	return o.transition(seq, StateSent, true)
}

// MarkAcked flips a record to ACKED after the bus confirmed it.
func (o *Outbox) MarkAcked(seq uint64) error {
	return o.transition(seq, StateAcked, false)
}

// Delete removes ACKED records (cleanup).
func (o *Outbox) Delete(seq uint64) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

// Get returns the current record for a sequence.
func (o *Outbox) Get(seq uint64) (*Record, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	rec, _, err := decodeValue(seq, val)
	return rec, err
}

func (o *Outbox) transition(seq uint64, state State, bumpRetry bool) error {
	key := keyFor(seq)
	val, closer, err := o.db.Get(key)
	if err != nil {
		return err
	}
	rec, raw, err := decodeValue(seq, val)
	if err != nil {
		closer.Close()
		return err
	}
	// The payload aliases pebble's buffer, which dies with the closer.
	payload := append([]byte(nil), raw...)
	closer.Close()

	retries := rec.Retries
	if bumpRetry {
		retries++
	}
	out := encodeValue(state, retries, time.Now().UnixNano(), payload)
	return o.db.Set(key, out, pebble.Sync)
}

// -------------------- Scan --------------------

// ScanPending iterates all records not yet ACKED, oldest first. SENT
// records are included: a crash or a failed publish after MarkSent must
// still be retried on the next pass.
func (o *Outbox) ScanPending(fn func(*Record) error) error {
	return o.scan(func(s State) bool { return s != StateAcked }, fn)
}

// ScanState iterates all records in exactly the given state.
func (o *Outbox) ScanState(state State, fn func(*Record) error) error {
	return o.scan(func(s State) bool { return s == state }, fn)
}

func (o *Outbox) scan(match func(State) bool, fn func(*Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, _, err := decodeValue(seq, iter.Value())
		if err != nil {
			return err
		}
		if !match(rec.State) {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// -------------------- Helpers --------------------

const keyPrefix = "event/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte(keyPrefix))), "%d", &seq)
	return seq, err
}

func putUint64LE(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func readUint64LE(buf []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v
}

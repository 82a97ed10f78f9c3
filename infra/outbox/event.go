package outbox

import (
	"errors"
	"hash/crc32"

	"google.golang.org/protobuf/encoding/protowire"
)

type EventKind uint32

const (
	KindAdmitted   EventKind = 1
	KindServed     EventKind = 2
	KindReinstated EventKind = 3
)

func (k EventKind) String() string {
	switch k {
	case KindAdmitted:
		return "ADMITTED"
	case KindServed:
		return "SERVED"
	case KindReinstated:
		return "REINSTATED"
	default:
		return "UNKNOWN"
	}
}

// Event is what downstream consumers see on the bus. EventID is the
// idempotency key; PatientID repeats across kinds as a patient cycles
// between waiting and served.
type Event struct {
	EventID   string
	Kind      EventKind
	PatientID uint64
	Severity  uint32
	Name      string
	Time      int64
}

var ErrCorruptEvent = errors.New("outbox: corrupted event payload")

// Field numbers are part of the wire contract; do not renumber.
const (
	fieldEventID   = 1
	fieldKind      = 2
	fieldPatientID = 3
	fieldSeverity  = 4
	fieldName      = 5
	fieldTime      = 6
)

// EncodeEvent renders the event in protobuf wire format, framed with a
// length + crc32 header so a torn value is detected on read.
func EncodeEvent(ev *Event) []byte {
	var body []byte
	body = protowire.AppendTag(body, fieldEventID, protowire.BytesType)
	body = protowire.AppendString(body, ev.EventID)
	body = protowire.AppendTag(body, fieldKind, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(ev.Kind))
	body = protowire.AppendTag(body, fieldPatientID, protowire.VarintType)
	body = protowire.AppendVarint(body, ev.PatientID)
	body = protowire.AppendTag(body, fieldSeverity, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(ev.Severity))
	body = protowire.AppendTag(body, fieldName, protowire.BytesType)
	body = protowire.AppendString(body, ev.Name)
	body = protowire.AppendTag(body, fieldTime, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(ev.Time))

	out := make([]byte, 8, 8+len(body))
	putUint32LE(out[:4], uint32(len(body)))
	putUint32LE(out[4:], crc32.ChecksumIEEE(body))
	return append(out, body...)
}

// DecodeEvent reverses EncodeEvent. Unknown fields are skipped so old
// readers tolerate new writers.
func DecodeEvent(data []byte) (*Event, error) {
	if len(data) < 8 {
		return nil, ErrCorruptEvent
	}
	n := readUint32LE(data[:4])
	body := data[8:]
	if uint32(len(body)) != n {
		return nil, ErrCorruptEvent
	}
	if crc32.ChecksumIEEE(body) != readUint32LE(data[4:8]) {
		return nil, ErrCorruptEvent
	}

	ev := &Event{}
	for len(body) > 0 {
		num, typ, tagLen := protowire.ConsumeTag(body)
		if tagLen < 0 {
			return nil, ErrCorruptEvent
		}
		body = body[tagLen:]

		var used int
		switch {
		case num == fieldEventID && typ == protowire.BytesType:
			var s string
			s, used = consumeString(body)
			ev.EventID = s
		case num == fieldKind && typ == protowire.VarintType:
			var v uint64
			v, used = protowire.ConsumeVarint(body)
			ev.Kind = EventKind(v)
		case num == fieldPatientID && typ == protowire.VarintType:
			ev.PatientID, used = protowire.ConsumeVarint(body)
		case num == fieldSeverity && typ == protowire.VarintType:
			var v uint64
			v, used = protowire.ConsumeVarint(body)
			ev.Severity = uint32(v)
		case num == fieldName && typ == protowire.BytesType:
			var s string
			s, used = consumeString(body)
			ev.Name = s
		case num == fieldTime && typ == protowire.VarintType:
			var v uint64
			v, used = protowire.ConsumeVarint(body)
			ev.Time = int64(v)
		default:
			used = protowire.ConsumeFieldValue(num, typ, body)
		}
		if used < 0 {
			return nil, ErrCorruptEvent
		}
		body = body[used:]
	}
	return ev, nil
}

func consumeString(b []byte) (string, int) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return "", n
	}
	return string(v), n
}

func putUint32LE(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

func readUint32LE(buf []byte) uint32 {
	return uint32(buf[0]) |
		uint32(buf[1])<<8 |
		uint32(buf[2])<<16 |
		uint32(buf[3])<<24
}

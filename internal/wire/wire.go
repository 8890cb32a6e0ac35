// Package wire implements the alert wire codec: the framing that
// serializes an Alert into bytes for bus messages, mailbox list replies,
// and the legacy state-file format. It uses a compact binary layout
// rather than JSON, since the legacy on-disk format is a length-prefixed
// concatenation of wire-encoded alert messages — a binary framing, not a
// text one.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fty-ops/alert-registry/internal/domain/entity"
)

// Encode serializes a into its wire form.
func Encode(a *entity.Alert) []byte {
	var buf bytes.Buffer
	writeString(&buf, a.Rule)
	writeString(&buf, a.Element)
	writeString(&buf, string(a.State))
	writeString(&buf, a.Severity)
	writeString(&buf, a.Description)
	writeString(&buf, a.Metadata)
	writeInt64(&buf, a.Time)
	writeInt64(&buf, a.TTL)
	writeInt64(&buf, a.CTime)
	writeInt64(&buf, a.LastSent)
	writeUint32(&buf, uint32(len(a.Actions)))
	for _, action := range a.Actions {
		writeString(&buf, action)
	}
	return buf.Bytes()
}

// Decode parses the wire form produced by Encode.
func Decode(b []byte) (*entity.Alert, error) {
	r := bytes.NewReader(b)
	a := &entity.Alert{}

	var err error
	if a.Rule, err = readString(r); err != nil {
		return nil, fmt.Errorf("wire: decode rule: %w", err)
	}
	if a.Element, err = readString(r); err != nil {
		return nil, fmt.Errorf("wire: decode element: %w", err)
	}
	state, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode state: %w", err)
	}
	a.State = entity.State(state)
	if a.Severity, err = readString(r); err != nil {
		return nil, fmt.Errorf("wire: decode severity: %w", err)
	}
	if a.Description, err = readString(r); err != nil {
		return nil, fmt.Errorf("wire: decode description: %w", err)
	}
	if a.Metadata, err = readString(r); err != nil {
		return nil, fmt.Errorf("wire: decode metadata: %w", err)
	}
	if a.Time, err = readInt64(r); err != nil {
		return nil, fmt.Errorf("wire: decode time: %w", err)
	}
	if a.TTL, err = readInt64(r); err != nil {
		return nil, fmt.Errorf("wire: decode ttl: %w", err)
	}
	if a.CTime, err = readInt64(r); err != nil {
		return nil, fmt.Errorf("wire: decode ctime: %w", err)
	}
	if a.LastSent, err = readInt64(r); err != nil {
		return nil, fmt.Errorf("wire: decode last_sent: %w", err)
	}
	count, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode actions count: %w", err)
	}
	if count > 0 {
		a.Actions = make([]string, count)
		for i := range a.Actions {
			if a.Actions[i], err = readString(r); err != nil {
				return nil, fmt.Errorf("wire: decode action %d: %w", i, err)
			}
		}
	}
	return a, nil
}

// EncodeFramed writes a length-prefixed wire message, used by the legacy
// state-file format and, optionally, by point-to-point transports that
// need to know each message's boundary up front.
func EncodeFramed(a *entity.Alert) []byte {
	payload := Encode(a)
	var buf bytes.Buffer
	writeUint32(&buf, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

// DecodeAllFramed parses a concatenation of EncodeFramed messages, as
// found in the legacy state file, stopping at the first malformed frame.
func DecodeAllFramed(b []byte) ([]*entity.Alert, error) {
	r := bytes.NewReader(b)
	var alerts []*entity.Alert
	for r.Len() > 0 {
		length, err := readUint32(r)
		if err != nil {
			return alerts, fmt.Errorf("wire: read frame length: %w", err)
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return alerts, fmt.Errorf("wire: read frame payload: %w", err)
		}
		a, err := Decode(payload)
		if err != nil {
			return alerts, err
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	buf.Write(tmp[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func readInt64(r *bytes.Reader) (int64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(tmp[:])), nil
}

func readString(r *bytes.Reader) (string, error) {
	length, err := readUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
	}
	return string(buf), nil
}

package crdt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot layout: magic(4) | version(1) | crc32(payload)(4) | msgpack payload.
var magic = []byte("NDOC")

const (
	formatVersion = 1
	headerLen     = 9
)

type snapshotPayload struct {
	Ops []Op `msgpack:"ops"`
}

func encodeSnapshot(ops []Op) ([]byte, error) {
	if ops == nil {
		ops = []Op{}
	}
	payload, err := msgpack.Marshal(&snapshotPayload{Ops: ops})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	out := make([]byte, headerLen, headerLen+len(payload))
	copy(out, magic)
	out[4] = formatVersion
	binary.BigEndian.PutUint32(out[5:9], crc32.ChecksumIEEE(payload))
	return append(out, payload...), nil
}

func decodeSnapshot(data []byte) ([]Op, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	if !bytes.Equal(data[:4], magic) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if data[4] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, data[4])
	}
	payload := data[headerLen:]
	if want, got := binary.BigEndian.Uint32(data[5:9]), crc32.ChecksumIEEE(payload); want != got {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	var p snapshotPayload
	if err := msgpack.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for _, op := range p.Ops {
		if op.Kind != OpInsert && op.Kind != OpDelete {
			return nil, fmt.Errorf("%w: op %s has unknown kind %d", ErrCorrupt, op.ID, op.Kind)
		}
	}
	return p.Ops, nil
}

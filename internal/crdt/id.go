package crdt

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// PeerID identifies the replica that produced an operation.
type PeerID uint64

// NewPeerID derives a random peer id from a v4 UUID.
func NewPeerID() PeerID {
	u := uuid.New()
	return PeerID(binary.BigEndian.Uint64(u[:8]))
}

// ID is a Lamport timestamp. The zero ID denotes the head of the sequence.
type ID struct {
	Peer    PeerID `msgpack:"p"`
	Counter uint64 `msgpack:"c"`
}

// Head is the virtual origin every sequence starts from.
var Head = ID{}

func (id ID) IsZero() bool { return id.Counter == 0 && id.Peer == 0 }

// Less orders ids by counter, then peer.
func (id ID) Less(other ID) bool {
	if id.Counter != other.Counter {
		return id.Counter < other.Counter
	}
	return id.Peer < other.Peer
}

func (id ID) String() string {
	return fmt.Sprintf("%d@%x", id.Counter, uint64(id.Peer))
}

// OpKind discriminates operations in the log.
type OpKind uint8

const (
	OpInsert OpKind = iota + 1
	OpDelete
)

// Op is one entry of a document's operation log.
// Insert ops place Value after Ref (Head for the start of the sequence).
// Delete ops tombstone the element whose id is Ref.
type Op struct {
	Kind  OpKind `msgpack:"k"`
	ID    ID     `msgpack:"id"`
	Ref   ID     `msgpack:"r"`
	Value []byte `msgpack:"v,omitempty"`
}

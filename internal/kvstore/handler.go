package kvstore

import (
	"io"

	"github.com/yndnr/relog-go/internal/storage/codec"
	"github.com/yndnr/relog-go/internal/storage/journal"
	"github.com/yndnr/relog-go/pkg/cmap"
	"github.com/yndnr/relog-go/pkg/crypto/adaptive"
)

// Associated data binding sealed payloads to their role, so a sealed update
// cannot be replayed as a snapshot or the other way round.
var (
	adUpdate   = []byte("relog/kv/update")
	adSnapshot = []byte("relog/kv/snapshot")
)

// handler connects the journal to the in-memory map.
type handler struct {
	data      *cmap.Map[[]byte]
	updates   codec.Codec[Mutation]
	snapshots codec.Codec[[]cmap.Entry[[]byte]]
}

var _ journal.Handler[Mutation] = (*handler)(nil)

// newHandler picks the payload codecs. Sealed payloads are authenticated by
// the AEAD; plain ones carry a CRC.
func newHandler(data *cmap.Map[[]byte], c adaptive.Cipher) *handler {
	h := &handler{data: data}
	if c != nil {
		h.updates = codec.NewSealed[Mutation](mutationCodec{}, c, adUpdate)
		h.snapshots = codec.NewSealed[[]cmap.Entry[[]byte]](snapshotCodec{}, c, adSnapshot)
	} else {
		h.updates = codec.Checked[Mutation]{Inner: mutationCodec{}}
		h.snapshots = codec.Checked[[]cmap.Entry[[]byte]]{Inner: snapshotCodec{}}
	}
	return h
}

func (h *handler) WriteSnapshot(w io.Writer) error {
	return h.snapshots.Encode(w, h.data.Entries())
}

func (h *handler) ReadSnapshot(r io.Reader) error {
	entries, err := h.snapshots.Decode(r)
	if err != nil {
		return err
	}
	h.data.Replace(entries)
	return nil
}

func (h *handler) WriteUpdate(w io.Writer, m Mutation) error {
	return h.updates.Encode(w, m)
}

func (h *handler) ReadUpdate(r io.Reader) (Mutation, error) {
	return h.updates.Decode(r)
}

func (h *handler) ApplyUpdate(m Mutation) error {
	switch m.Op {
	case OpPut:
		h.data.Set(m.Key, m.Value)
	case OpDelete:
		h.data.Delete(m.Key)
	default:
		return ErrBadMutation
	}
	return nil
}

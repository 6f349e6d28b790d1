package dissector

import "firestige.xyz/pktdesc/internal/core/layout"

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// WriteFragmentDescriptor writes an IPF descriptor for the outermost IP
// header of the last packet. It returns 0 and writes nothing when that
// header is not a fragment.
func (w *walker) WriteFragmentDescriptor(out []byte) int {
	if !w.isFragment {
		return 0
	}
	_ = out[layout.IPFSize-1]

	f := &w.frag
	order := w.cfg.order()
	order.PutUint32(out[layout.IPFWord0:], layout.IPFIsFrag.Put(1)|
		layout.IPFIsLast.Put(b2u(w.isLastFragment))|
		layout.IPFIPVersion.Put(uint32(f.version))|
		layout.IPFL3Offset.Put(uint32(f.l3Offset)))
	order.PutUint32(out[layout.IPFWord1:], layout.IPFFragOffset.Put(uint32(f.offset))|
		layout.IPFFragDataLen.Put(uint32(f.dataLen)))
	order.PutUint32(out[layout.IPFID:], f.id)
	order.PutUint32(out[layout.IPFWord3:], layout.IPFL3HeaderLen.Put(uint32(f.l3HeaderLen))|
		layout.IPFL4Protocol.Put(uint32(f.proto)))
	order.PutUint64(out[layout.IPFTimestamp:], w.timestamp)
	return layout.IPFSize
}

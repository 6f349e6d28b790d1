package dissector

import (
	"encoding/binary"

	"firestige.xyz/pktdesc/internal/core/packid"
)

// The setters below change configuration and therefore survive Reset.

// DisableIPv4Options stops recording the given IPv4 options. The options
// are still walked over.
func (w *walker) DisableIPv4Options(ids ...packid.HeaderID) { w.disable(packid.IPv4, ids) }

// DisableIPv6Extensions stops recording the given IPv6 extension headers.
// The chain is still walked and still counted in the IPv6 record length.
func (w *walker) DisableIPv6Extensions(ids ...packid.HeaderID) { w.disable(packid.IPv6, ids) }

// DisableTCPOptions stops recording the given TCP options.
func (w *walker) DisableTCPOptions(ids ...packid.HeaderID) { w.disable(packid.TCP, ids) }

func (w *walker) disable(owner packid.HeaderID, ids []packid.HeaderID) {
	for _, id := range ids {
		if id.Owner() == owner {
			w.cfg.disableOption(id)
		}
	}
}

// DisableBitmaskRecording makes every later dissection report all headers
// as possibly present.
func (w *walker) DisableBitmaskRecording() {
	w.cfg.defaultBitmask = packid.DisabledBitmask
}

// SetRxPort sets the receive port written into Type2 descriptors.
func (w *walker) SetRxPort(port uint8) { w.cfg.rxPort = port }

// SetHashing enables or disables the flow hash.
func (w *walker) SetHashing(on bool) { w.cfg.hashing = on }

// SetByteOrder sets the byte order of descriptor words.
func (w *walker) SetByteOrder(order binary.ByteOrder) { w.cfg.setByteOrder(order) }

// ByteOrder returns the byte order of descriptor words.
func (w *walker) ByteOrder() binary.ByteOrder { return w.cfg.order() }

func (w *walker) Summary() Summary { return w.summary() }

// IsNative always returns false: dissection runs in process.
func (w *walker) IsNative() bool { return false }

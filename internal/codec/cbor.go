// Package codec holds the CBOR configuration used for archive metadata
// blocks.
//
// The metadata block is a single CBOR data item. CBOR items carry their
// own length, so a decoder positioned at the block's offset knows where
// the block ends without a separate length prefix. The encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2): the same Archive value always
// produces the same bytes.
package codec

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Creation dates keep sub-second precision and their zone.
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// A metadata block larger than this is treated as corrupt rather
		// than allocated.
		MaxArrayElements: 1 << 24,
		MaxMapPairs:      1 << 24,
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// NewDecoder returns a CBOR decoder that reads items from r one at a time.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

package wire

import (
	"github.com/picowire/picowire/schema"
)

// MessageDecoder handles nested message decoding operations
type MessageDecoder struct {
	decoder *Decoder
}

// MessageEncoder handles nested message encoding operations
type MessageEncoder struct {
	encoder *Encoder
}

// NewMessageDecoder creates a new message decoder
func NewMessageDecoder(d *Decoder) *MessageDecoder {
	return &MessageDecoder{decoder: d}
}

// NewMessageEncoder creates a new message encoder
func NewMessageEncoder(e *Encoder) *MessageEncoder {
	return &MessageEncoder{encoder: e}
}

// EncodeNested encodes a nested message value through its subschema and
// emits it as a length-prefixed segment. The temporary buffer lives only
// until its bytes are appended.
func (me *MessageEncoder) EncodeNested(sub *schema.Schema, value interface{}) error {
	nested, err := EncodeSchema(sub, value)
	if err != nil {
		return err
	}
	me.encoder.EncodeBytes(nested)
	return nil
}

// DecodeNested decodes the rest of the wrapped decoder's buffer through a
// subschema. The shape of the result follows the subschema's dialect.
func (md *MessageDecoder) DecodeNested(sub *schema.Schema) (interface{}, error) {
	d := md.decoder
	return DecodeSchema(sub, d.buf[d.pos:])
}

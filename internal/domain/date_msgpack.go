package domain

import "github.com/vmihailenco/msgpack/v5"

// EncodeMsgpack encodes the date as a "YYYY-MM-DD" string.
func (d Date) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(d.String())
}

// DecodeMsgpack decodes a "YYYY-MM-DD" string.
func (d *Date) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var (
	_ msgpack.CustomEncoder = Date{}
	_ msgpack.CustomDecoder = (*Date)(nil)
)

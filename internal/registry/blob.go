package registry

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"ntdiff/internal/nodetype"
)

const (
	encodingJSON = "json"
	encodingZstd = "zstd"
)

// blobCodec turns definitions into stored blobs. Encoder and decoder are
// only used through EncodeAll/DecodeAll, which are safe for concurrent use.
type blobCodec struct {
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

func newBlobCodec(compress bool) (*blobCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		_ = enc.Close()
		return nil, err
	}
	return &blobCodec{compress: compress, enc: enc, dec: dec}, nil
}

// encode returns the blob and its encoding label.
func (c *blobCodec) encode(def nodetype.NodeTypeDefinition) ([]byte, string, error) {
	data, err := json.Marshal(def)
	if err != nil {
		return nil, "", err
	}
	if !c.compress {
		return data, encodingJSON, nil
	}
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), encodingZstd, nil
}

func (c *blobCodec) decode(blob []byte, encoding string) (nodetype.NodeTypeDefinition, error) {
	var def nodetype.NodeTypeDefinition
	switch encoding {
	case encodingJSON:
	case encodingZstd:
		raw, err := c.dec.DecodeAll(blob, nil)
		if err != nil {
			return def, fmt.Errorf("decompress definition: %w", err)
		}
		blob = raw
	default:
		return def, fmt.Errorf("unknown definition encoding %q", encoding)
	}
	if err := json.Unmarshal(blob, &def); err != nil {
		return def, fmt.Errorf("decode definition: %w", err)
	}
	return def, nil
}

func (c *blobCodec) close() {
	_ = c.enc.Close()
	c.dec.Close()
}

package codec

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	Gzip   = "gzip"
	Zstd   = "zstd"
	Brotli = "br"
	None   = "none"
)

func Supported(encoding string) bool {
	switch normalize(encoding) {
	case Gzip, Zstd, Brotli, None:
		return true
	}
	return false
}

// Decompress decodes body with the named encoding. An empty encoding means gzip,
// which is how CloudTrail delivers log objects.
func Decompress(encoding string, body []byte) ([]byte, error) {
	switch normalize(encoding) {
	case Gzip:
		gr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		out, err := io.ReadAll(gr)
		cerr := gr.Close()
		if err != nil {
			return nil, err
		}
		if cerr != nil {
			return nil, cerr
		}
		return out, nil
	case Zstd:
		dec, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return io.ReadAll(dec)
	case Brotli:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
	case None:
		return body, nil
	default:
		return nil, fmt.Errorf("unsupported compression: %q", encoding)
	}
}

func normalize(encoding string) string {
	e := strings.TrimSpace(strings.ToLower(encoding))
	if e == "" {
		return Gzip
	}
	return e
}

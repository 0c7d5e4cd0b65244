package blobcache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/crc32"
)

// ErrCorrupt is returned (wrapped) when a cache entry fails validation
// on read
var ErrCorrupt = errors.New("corrupt cache entry")

// Compression selects how entry payloads are compressed on disk.
// Reads always honor the codec recorded in the entry itself, so the
// setting can change between writes without invalidating old entries.
type Compression int

const (
	NoCompression Compression = iota
	Zstd
	Brotli
)

const (
	codecRaw  = "raw"
	codecZstd = "zstd"
	codecBr   = "br"
)

func (c Compression) codec() string {
	switch c {
	case Zstd:
		return codecZstd
	case Brotli:
		return codecBr
	}
	return codecRaw
}

/*
An entry is a single header line followed by the (possibly compressed)
payload:

	blob <size> <crc32-hex> <codec> <timestamp-ms>\n
	<size bytes of payload>

size and crc32 describe the payload as stored, which lets a reader
detect truncation and corruption before trying to decode anything.
*/

// marshalRecord frames payload into the on-disk entry format
func marshalRecord(payload []byte, codec string, timestampMs int64) []byte {
	crc := crc32.ChecksumIEEE(payload)
	hdr := fmt.Sprintf("blob %d %08x %s %d\n", len(payload), crc, codec, timestampMs)
	res := make([]byte, 0, len(hdr)+len(payload))
	res = append(res, hdr...)
	return append(res, payload...)
}

// unmarshalRecord validates d and returns the payload and its codec
func unmarshalRecord(d []byte) (payload []byte, codec string, err error) {
	idx := bytes.IndexByte(d, '\n')
	if idx == -1 {
		return nil, "", fmt.Errorf("%w: missing header", ErrCorrupt)
	}
	hdr := string(d[:idx])
	d = d[idx+1:]

	parts := strings.Split(hdr, " ")
	if len(parts) != 5 || parts[0] != "blob" {
		return nil, "", fmt.Errorf("%w: invalid header '%s'", ErrCorrupt, hdr)
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || size < 0 {
		return nil, "", fmt.Errorf("%w: invalid size in header '%s'", ErrCorrupt, hdr)
	}
	wantCrc, err := strconv.ParseUint(parts[2], 16, 32)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid checksum in header '%s'", ErrCorrupt, hdr)
	}
	codec = parts[3]
	if _, err = strconv.ParseInt(parts[4], 10, 64); err != nil {
		return nil, "", fmt.Errorf("%w: invalid timestamp in header '%s'", ErrCorrupt, hdr)
	}

	if int64(len(d)) != size {
		return nil, "", fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(d), size)
	}
	if crc := crc32.ChecksumIEEE(d); uint64(crc) != wantCrc {
		return nil, "", fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return d, codec, nil
}

func compress(d []byte, c Compression) ([]byte, error) {
	switch c {
	case Zstd:
		var buf bytes.Buffer
		w, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err = w.Write(d); err != nil {
			w.Close()
			return nil, err
		}
		if err = w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Brotli:
		var buf bytes.Buffer
		w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
		if _, err := w.Write(d); err != nil {
			w.Close()
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return d, nil
}

func decompress(d []byte, codec string) ([]byte, error) {
	switch codec {
	case codecRaw:
		return d, nil
	case codecZstd:
		r, err := zstd.NewReader(bytes.NewReader(d))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCorrupt, err)
		}
		defer r.Close()
		res, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCorrupt, err)
		}
		return res, nil
	case codecBr:
		res, err := io.ReadAll(brotli.NewReader(bytes.NewReader(d)))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCorrupt, err)
		}
		return res, nil
	}
	return nil, fmt.Errorf("%w: unknown codec '%s'", ErrCorrupt, codec)
}

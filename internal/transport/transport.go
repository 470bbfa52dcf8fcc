// Package transport compresses and decompresses message bodies for the
// content codings the protocol supports, and negotiates which one to use.
package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Encoding is an HTTP content coding.
type Encoding string

const (
	Identity Encoding = "identity"
	Gzip     Encoding = "gzip"
	Zstd     Encoding = "zstd"
	LZ4      Encoding = "lz4"
)

// ErrTooLarge is returned when a decompressed body exceeds its limit.
var ErrTooLarge = errors.New("transport: body too large")

// Supported lists the codings in server preference order.
var Supported = []Encoding{Zstd, LZ4, Gzip, Identity}

// ParseEncoding parses a coding name. An empty name means Identity.
func ParseEncoding(name string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(strings.TrimSpace(name))); e {
	case "":
		return Identity, nil
	case Identity, Gzip, Zstd, LZ4:
		return e, nil
	default:
		return "", fmt.Errorf("unsupported content coding %q", name)
	}
}

// Negotiate picks the response coding for an Accept-Encoding header.
// preferred wins when acceptable; otherwise the first acceptable coding of
// Supported. Identity is the fallback.
func Negotiate(acceptEncoding string, preferred Encoding) Encoding {
	accepted := make(map[Encoding]bool)
	wildcard := false
	for _, part := range strings.Split(acceptEncoding, ",") {
		name, params, _ := strings.Cut(part, ";")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ok := qualityOf(params) > 0
		if name == "*" {
			wildcard = ok
			continue
		}
		if e, err := ParseEncoding(name); err == nil {
			accepted[e] = ok
		}
	}

	acceptable := func(e Encoding) bool {
		if v, listed := accepted[e]; listed {
			return v
		}
		return wildcard
	}

	if preferred != "" && preferred != Identity && acceptable(preferred) {
		return preferred
	}
	for _, e := range Supported {
		if e != Identity && acceptable(e) {
			return e
		}
	}
	return Identity
}

func qualityOf(params string) float64 {
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || strings.TrimSpace(k) != "q" {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return q
	}
	return 1
}

// zstd encoders and decoders are safe for concurrent use.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("transport: zstd encoder initialization failed: " + err.Error())
	}
}

// Compress encodes data with enc.
func Compress(data []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case Identity, "":
		return data, nil

	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil

	case Gzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip compress: %w", err)
		}
		return buf.Bytes(), nil

	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported content coding %q", enc)
	}
}

// Decompress decodes data compressed with enc. The decoded size may not
// exceed limit bytes; a limit of zero or less disables the check.
func Decompress(data []byte, enc Encoding, limit int64) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(data), enc)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadAll(r, limit)
}

// NewReader returns a reader decoding r with enc.
func NewReader(r io.Reader, enc Encoding) (io.ReadCloser, error) {
	switch enc {
	case Identity, "":
		return io.NopCloser(r), nil

	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		return zr, nil

	case Zstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return zr.IOReadCloser(), nil

	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil

	default:
		return nil, fmt.Errorf("unsupported content coding %q", enc)
	}
}

// ReadAll reads r to the end, failing with ErrTooLarge past limit bytes.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

package transform

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Encryption is a Transform stage backed by ChaCha20-Poly1305 AEAD. Unlike
// Compression, AEAD seals a single message at once, so Serialize buffers
// plaintext in memory and seals it on Close; Deserialize buffers ciphertext
// on first Read and opens it in one shot. Page payloads are bounded (at
// most one page per call), so this is not a streaming concern.
type Encryption struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

// NewEncryption builds an Encryption stage from a 32-byte key.
func NewEncryption(key []byte) (*Encryption, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("transform: new chacha20poly1305: %w", err)
	}
	return &Encryption{aead: aead}, nil
}

func (e *Encryption) Serialize(sink io.Writer) io.WriteCloser {
	return &encryptWriter{aead: e.aead, sink: sink}
}

func (e *Encryption) Deserialize(source io.Reader) io.Reader {
	return &decryptReader{aead: e.aead, source: source}
}

type encryptWriter struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		NonceSize() int
	}
	sink   io.Writer
	buf    bytes.Buffer
	closed bool
}

func (w *encryptWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *encryptWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	nonce := make([]byte, w.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("transform: read nonce: %w", err)
	}
	sealed := w.aead.Seal(nil, nonce, w.buf.Bytes(), nil)
	if _, err := w.sink.Write(nonce); err != nil {
		return err
	}
	_, err := w.sink.Write(sealed)
	return err
}

type decryptReader struct {
	aead interface {
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
	source  io.Reader
	opened  bytes.Reader
	didOpen bool
}

func (r *decryptReader) Read(p []byte) (int, error) {
	if !r.didOpen {
		raw, err := io.ReadAll(r.source)
		if err != nil {
			return 0, err
		}
		nsize := r.aead.NonceSize()
		if len(raw) < nsize {
			return 0, fmt.Errorf("transform: ciphertext shorter than nonce")
		}
		plain, err := r.aead.Open(nil, raw[:nsize], raw[nsize:], nil)
		if err != nil {
			return 0, fmt.Errorf("transform: decrypt: %w", err)
		}
		r.opened = *bytes.NewReader(plain)
		r.didOpen = true
	}
	return r.opened.Read(p)
}

package transform

import (
	"bytes"
	"io"
	"testing"
)

func TestNoopChain_RoundTrip(t *testing.T) {
	chain := NewChain(Noop{})
	var out bytes.Buffer

	wc := chain.Serialize(&out)
	if _, err := wc.Write([]byte("hello world")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := wc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := io.ReadAll(chain.Deserialize(bytes.NewReader(out.Bytes())))
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
}

func TestCompression_RoundTrip(t *testing.T) {
	chain := NewChain(NewCompression(0))
	var out bytes.Buffer
	payload := bytes.Repeat([]byte("abc"), 100)

	wc := chain.Serialize(&out)
	if _, err := wc.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := wc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := io.ReadAll(chain.Deserialize(bytes.NewReader(out.Bytes())))
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("roundtrip mismatch: got %d bytes, want %d", len(got), len(payload))
	}
}

func TestEncryption_RoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	enc, err := NewEncryption(key)
	if err != nil {
		t.Fatalf("NewEncryption: %v", err)
	}
	chain := NewChain(enc)

	var out bytes.Buffer
	payload := []byte("top secret page bytes")

	wc := chain.Serialize(&out)
	if _, err := wc.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := wc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if bytes.Contains(out.Bytes(), payload) {
		t.Fatal("ciphertext contains plaintext payload")
	}

	got, err := io.ReadAll(chain.Deserialize(bytes.NewReader(out.Bytes())))
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestComposedChain_CompressionThenEncryption(t *testing.T) {
	key := bytes.Repeat([]byte{0x7}, 32)
	enc, err := NewEncryption(key)
	if err != nil {
		t.Fatalf("NewEncryption: %v", err)
	}
	chain := NewChain(NewCompression(0), enc)

	var out bytes.Buffer
	payload := bytes.Repeat([]byte("page-bytes-"), 50)

	wc := chain.Serialize(&out)
	if _, err := wc.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := wc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := io.ReadAll(chain.Deserialize(bytes.NewReader(out.Bytes())))
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("roundtrip mismatch after compression+encryption chain")
	}
}

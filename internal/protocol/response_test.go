package protocol_test

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/0xRadioAc7iv/go-contactfile/internal/protocol"
)

func TestEncodeDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  protocol.Status
		payload []byte
	}{
		{"simple response", protocol.StatusOK, []byte("ok")},
		{"not found", protocol.StatusNotFound, nil},
		{"conflict", protocol.StatusConflict, []byte("email already in use")},
		{"error message", protocol.StatusError, []byte("contact store: i/o failure")},
		{"multiline response", protocol.StatusOK, []byte("a@x.com\nb@x.com\nc@x.com")},
		{"unicode response", protocol.StatusOK, []byte("こんにちは世界")},
		{"large response", protocol.StatusOK, make([]byte, 2048)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			payload, err := protocol.EncodeResponse(tt.status, tt.payload)
			if err != nil {
				t.Fatalf("EncodeResponse failed: %v", err)
			}

			go func() {
				_, _ = client.Write(payload)
			}()

			resp, err := protocol.DecodeResponse(server)
			if err != nil {
				t.Fatalf("DecodeResponse failed: %v", err)
			}

			if resp.Status != tt.status {
				t.Errorf("Status mismatch: got %v, want %v", resp.Status, tt.status)
			}
			if !bytes.Equal(resp.Payload, tt.payload) {
				t.Errorf("Payload mismatch: got %q, want %q", resp.Payload, tt.payload)
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	if got := protocol.StatusNotFound.String(); got != "not found" {
		t.Errorf("StatusNotFound.String() = %q", got)
	}
	if got := protocol.Status(42).String(); got != "status(42)" {
		t.Errorf("Status(42).String() = %q", got)
	}
}

func TestDecodeResponse_TruncatedPayload(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload, err := protocol.EncodeResponse(protocol.StatusOK, []byte("hello world"))
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}

	go func() {
		_, _ = client.Write(payload[:len(payload)/2])
		client.Close()
	}()

	if _, err := protocol.DecodeResponse(server); err == nil {
		t.Fatalf("expected error on truncated response, got nil")
	}
}

func TestDecodeResponse_BlocksUntilComplete(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload, err := protocol.EncodeResponse(protocol.StatusOK, []byte("blocking test"))
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}

	done := make(chan struct{})

	go func() {
		_, _ = protocol.DecodeResponse(server)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("DecodeResponse returned early")
	case <-time.After(50 * time.Millisecond):
	}

	_, _ = client.Write(payload)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("DecodeResponse did not return after full payload")
	}
}

package botclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// Idle keep-alive connections from the shared transport are not leaks.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func TestSend_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/chat" {
			t.Errorf("Expected /chat, got %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("Expected X-Request-ID header")
		}

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["message"] != "hello" {
			t.Errorf("Expected message 'hello', got %q", body["message"])
		}
		if body["mode"] != "casual" {
			t.Errorf("Expected mode 'casual', got %q", body["mode"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reply": "hi there", "task": "buy milk", "show_tasks": true}`))
	}))
	defer server.Close()

	client := New(server.URL)

	reply, err := client.Send(context.Background(), "hello", "casual")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Reply != "hi there" {
		t.Errorf("Expected 'hi there', got %q", reply.Reply)
	}
	if reply.Task != "buy milk" {
		t.Errorf("Expected task 'buy milk', got %q", reply.Task)
	}
	if !reply.ShowTasks {
		t.Error("Expected show_tasks true")
	}
}

func TestSend_OmittedSideChannel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reply": "plain answer"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	reply, err := client.Send(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Task != "" || reply.ShowTasks {
		t.Errorf("Expected empty side channel, got task=%q show_tasks=%v", reply.Task, reply.ShowTasks)
	}
}

func TestSend_TransportError(t *testing.T) {
	// Point at a server that is already closed.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := New(server.URL, WithTimeout(500*time.Millisecond))
	_, err := client.Send(context.Background(), "hello", "")
	if err == nil {
		t.Fatal("Expected error")
	}

	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if cerr.Kind != KindTransport {
		t.Errorf("Expected KindTransport, got %v", cerr.Kind)
	}
}

func TestSend_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Send(context.Background(), "hello", "")

	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if cerr.Kind != KindStatus {
		t.Errorf("Expected KindStatus, got %v", cerr.Kind)
	}
}

func TestSend_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Send(context.Background(), "hello", "")

	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if cerr.Kind != KindDecode {
		t.Errorf("Expected KindDecode, got %v", cerr.Kind)
	}
}

func TestUpload_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			t.Errorf("Expected /upload, got %s", r.URL.Path)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile failed: %v", err)
		}
		defer file.Close()
		if header.Filename != "notes.txt" {
			t.Errorf("Expected notes.txt, got %s", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "file body" {
			t.Errorf("Unexpected file content: %q", data)
		}

		w.Write([]byte(`{"filename": "notes.txt"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	name, err := client.Upload(context.Background(), "notes.txt", strings.NewReader("file body"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if name != "notes.txt" {
		t.Errorf("Expected notes.txt, got %q", name)
	}
}

func TestUpload_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Upload(context.Background(), "x.txt", strings.NewReader("x"))

	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if cerr.Kind != KindStatus {
		t.Errorf("Expected KindStatus, got %v", cerr.Kind)
	}
}

func TestNew_DefaultBaseURL(t *testing.T) {
	client := New("")
	if client.baseURL != DefaultBaseURL {
		t.Errorf("Expected %s, got %s", DefaultBaseURL, client.baseURL)
	}
}

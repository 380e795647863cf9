package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// StdoutTarget as the debug dump target selects a WriterSink on stdout.
const StdoutTarget = "-"

// NewDebugSink picks a sink for target: nil when empty, a WriterSink on
// stdout for StdoutTarget, and a JSONDirSink rooted at target otherwise.
func NewDebugSink(target string, stdout io.Writer) (DebugSink, error) {
	switch target {
	case "":
		return nil, nil
	case StdoutTarget:
		return NewWriterSink(stdout), nil
	default:
		return NewJSONDirSink(target)
	}
}

// JSONDirSink dumps values as indented JSON files through a FileStore,
// at <root>/<id>/<name>.json.
type JSONDirSink struct {
	store *FileStore
}

// NewJSONDirSink creates a sink rooted at dir.
func NewJSONDirSink(dir string) (*JSONDirSink, error) {
	store, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &JSONDirSink{store: store}, nil
}

func (s *JSONDirSink) Dump(id, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("debug dump: marshal %s: %w", name, err)
	}
	return s.store.Save(id, name+".json", data)
}

// WriterSink writes one JSON document per line to w. It is safe for
// concurrent use.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Dump(id, name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return json.NewEncoder(s.w).Encode(struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Data any    `json:"data"`
	}{id, name, v})
}

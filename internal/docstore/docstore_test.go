package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type recordingStore struct {
	Store
	batches []int
	failAt  int
}

func (r *recordingStore) WriteBatch(_ context.Context, _ string, docs []Document) error {
	r.batches = append(r.batches, len(docs))
	if r.failAt > 0 && len(r.batches) == r.failAt {
		return errors.New("chunk rejected")
	}
	return nil
}

func docs(n int) []Document {
	out := make([]Document, n)
	for i := range out {
		out[i] = Document{ID: fmt.Sprintf("d%d", i), Data: []byte(`{}`)}
	}
	return out
}

func TestWriteChunked(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		limit int
		want  []int
	}{
		{"empty", 0, 500, nil},
		{"single chunk", 499, 500, []int{499}},
		{"exact limit", 500, 500, []int{500}},
		{"split at store limit", 1201, 500, []int{500, 500, 201}},
		{"configured smaller limit", 5, 2, []int{2, 2, 1}},
		{"limit above store maximum is capped", 600, 1000, []int{500, 100}},
		{"zero limit means store maximum", 501, 0, []int{500, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingStore{}
			if err := WriteChunked(context.Background(), s, "months", docs(tt.n), tt.limit); err != nil {
				t.Fatalf("WriteChunked() error = %v", err)
			}
			if fmt.Sprint(s.batches) != fmt.Sprint(tt.want) {
				t.Errorf("batches = %v, want %v", s.batches, tt.want)
			}
		})
	}
}

func TestWriteChunked_StopsAtFirstFailure(t *testing.T) {
	s := &recordingStore{failAt: 2}
	err := WriteChunked(context.Background(), s, "months", docs(1100), 500)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(s.batches) != 2 {
		t.Errorf("chunks attempted = %d, want 2", len(s.batches))
	}
}

func TestEncodeDecode(t *testing.T) {
	if _, err := Encode("", 1); !errors.Is(err, ErrEmptyID) {
		t.Errorf("Encode(\"\") error = %v, want ErrEmptyID", err)
	}
	d, err := Encode("x", map[string]int{"n": 3})
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]int
	if err := d.Decode(&v); err != nil || v["n"] != 3 {
		t.Errorf("Decode() = %v, %v", v, err)
	}
}

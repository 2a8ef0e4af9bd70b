package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vigilhq/vigil/internal/model"
)

func TestAppendReplayCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.journal")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	ev1 := &model.Event{
		Timestamp: time.Now().UTC(),
		Type:      model.EventForegroundChange,
		Hostname:  "web1",
		Data:      map[string]interface{}{"process_name": "first.exe"},
	}
	ev2 := &model.Event{
		Timestamp: time.Now().UTC(),
		Type:      model.EventForegroundChange,
		Hostname:  "web1",
		Data:      map[string]interface{}{"process_name": "second.exe"},
	}

	seq1, err := j.Append(ev1)
	if err != nil {
		t.Fatalf("Append ev1: %v", err)
	}
	seq2, err := j.Append(ev2)
	if err != nil {
		t.Fatalf("Append ev2: %v", err)
	}
	if seq2 <= seq1 {
		t.Fatalf("sequence did not advance: seq1=%d seq2=%d", seq1, seq2)
	}

	if err := j.Commit(seq1); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var replayed []string
	err = j.Replay(func(_ uint64, ev *model.Event) error {
		name, _ := ev.Data["process_name"].(string)
		replayed = append(replayed, name)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(replayed) != 1 || replayed[0] != "second.exe" {
		t.Fatalf("Replay processes=%v, want [second.exe]", replayed)
	}
}

func TestOpenIgnoresPartialTrailingLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.journal")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = j.Append(&model.Event{
		Timestamp: time.Now().UTC(),
		Type:      model.EventKeyCount,
		Hostname:  "web1",
		Data:      map[string]interface{}{"count": float64(7)},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Simulate torn write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString(`{"seq":999,"event":`); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close torn writer: %v", err)
	}

	j2, err := Open(path)
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}
	defer func() { _ = j2.Close() }()

	var replayed []model.EventType
	err = j2.Replay(func(_ uint64, ev *model.Event) error {
		replayed = append(replayed, ev.Type)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay second: %v", err)
	}
	if len(replayed) != 1 || replayed[0] != model.EventKeyCount {
		t.Fatalf("Replay after torn write=%v, want [key_count]", replayed)
	}
}

package sse

import "testing"

func TestEncoder_FormatEvent_WithType(t *testing.T) {
	e := NewEncoder()

	got := e.FormatEvent("progress", `{"percent":25}`)
	want := "event: progress\ndata: {\"percent\":25}\n\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestEncoder_FormatEvent_MessageTypeOmitsEventLine(t *testing.T) {
	e := NewEncoder()

	got := e.FormatEvent("message", "hello")
	want := "data: hello\n\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestEncoder_FormatEvent_MultilineData(t *testing.T) {
	e := NewEncoder()

	got := e.FormatEvent("message", "one\ntwo")
	want := "data: one\ndata: two\n\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	e := NewEncoder()
	d := NewDecoder(nil)

	original := Block{Type: "complete", Data: `{"result":"final"}`}
	blocks := d.Feed([]byte(e.FormatBlock(original)))

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0] != original {
		t.Errorf("round trip mismatch: got %+v, want %+v", blocks[0], original)
	}
}

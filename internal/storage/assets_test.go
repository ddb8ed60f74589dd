package storage

import "testing"

func TestImageKey(t *testing.T) {
	tests := []struct {
		taskID string
		mime   string
		index  int
		want   string
	}{
		{taskID: "task-1", mime: "image/png", index: 0, want: "generated/images/task-1/image-01.png"},
		{taskID: "task-1", mime: "image/jpeg; charset=binary", index: 2, want: "generated/images/task-1/image-03.jpg"},
		{taskID: "task-2", mime: "application/octet-stream", index: -1, want: "generated/images/task-2/image-01.bin"},
	}
	for _, tc := range tests {
		if got := ImageKey(tc.taskID, tc.mime, tc.index); got != tc.want {
			t.Fatalf("ImageKey(%q, %q, %d) = %q, want %q", tc.taskID, tc.mime, tc.index, got, tc.want)
		}
	}
}

func TestExtensionForMIME(t *testing.T) {
	if got := ExtensionForMIME(" IMAGE/WEBP "); got != ".webp" {
		t.Fatalf("got %q", got)
	}
	if got := ExtensionForMIME("text/html"); got != "" {
		t.Fatalf("unknown mime mapped to %q", got)
	}
}

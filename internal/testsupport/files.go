package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// mp4FtypBox is a minimal "ftyp" box header so fixtures resemble the videos
// the pipeline ingests rather than zero-filled blobs.
var mp4FtypBox = []byte{
	0x00, 0x00, 0x00, 0x14, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm',
}

// WriteVideoFile creates an MP4-flavored fixture of exactly size bytes: the
// ftyp header (truncated for tiny sizes) followed by deterministic filler.
func WriteVideoFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	data := make([]byte, size)
	copy(data, mp4FtypBox)
	for i := len(mp4FtypBox); i < len(data); i++ {
		data[i] = byte('a' + i%26)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

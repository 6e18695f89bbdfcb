package util

import (
	"encoding/binary"
	"os"

	"github.com/zeebo/xxh3"
)

// Fingerprint hashes the path, size and modification time of each file.
// Any edit, addition, removal or reordering changes the result.
func Fingerprint(files []string) uint64 {
	h := xxh3.New()
	var buf [16]byte
	for _, f := range files {
		h.WriteString(f)
		h.Write([]byte{0})
		info, err := os.Stat(f)
		if err != nil {
			// missing files still contribute their path
			continue
		}
		binary.LittleEndian.PutUint64(buf[:8], uint64(info.Size()))
		binary.LittleEndian.PutUint64(buf[8:], uint64(info.ModTime().UnixNano()))
		h.Write(buf[:])
	}
	return h.Sum64()
}

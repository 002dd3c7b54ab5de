package bloom

import (
	"fmt"
	"io"
	"os"

	"github.com/spaolacci/murmur3"
)

// ChecksumFile returns the murmur3 64-bit hash of the file at path as 16 hex
// digits. Tables with identical bytes share a checksum.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Checksum(f)
}

// Checksum hashes everything read from r.
func Checksum(r io.Reader) (string, error) {
	h := murmur3.New64()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

package fsutil

import "bytes"

// bomPrefixes are UTF-16/UTF-32 byte order marks. Content starting
// with one is text even though it contains null bytes.
var bomPrefixes = [][]byte{
	{0xFF, 0xFE, 0x00, 0x00},
	{0x00, 0x00, 0xFE, 0xFF},
	{0xFF, 0xFE},
	{0xFE, 0xFF},
}

// SystemBinaryDetector classifies content as binary when a null byte
// appears within the leading sample.
type SystemBinaryDetector struct {
	SampleSize int
}

// NewSystemBinaryDetector creates a detector sampling the first
// sampleSize bytes.
func NewSystemBinaryDetector(sampleSize int) *SystemBinaryDetector {
	return &SystemBinaryDetector{SampleSize: sampleSize}
}

// IsBinaryContent reports whether content looks binary. Wide-encoding
// BOMs are checked first so UTF-16/UTF-32 text is not misclassified.
func (d *SystemBinaryDetector) IsBinaryContent(content []byte) bool {
	for _, bom := range bomPrefixes {
		if bytes.HasPrefix(content, bom) {
			return false
		}
	}

	sample := content
	if len(sample) > d.SampleSize {
		sample = sample[:d.SampleSize]
	}
	return bytes.IndexByte(sample, 0) >= 0
}

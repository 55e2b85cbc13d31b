package executor

import "bytes"

// binaryDetector reports whether content looks like binary data.
type binaryDetector interface {
	IsBinaryContent(content []byte) bool
}

// collector captures command output with line and size limits and binary
// content detection.
type collector struct {
	buffer    bytes.Buffer
	maxBytes  int
	maxLines  int
	lines     int
	truncated bool
	isBinary  bool

	detector     binaryDetector
	bytesChecked int
	sampleSize   int
}

func newCollector(maxBytes, maxLines, sampleSize int, detector binaryDetector) *collector {
	return &collector{
		maxBytes:   maxBytes,
		maxLines:   maxLines,
		sampleSize: sampleSize,
		detector:   detector,
	}
}

func (c *collector) Write(p []byte) (n int, err error) {
	if c.isBinary {
		return len(p), nil
	}

	if c.bytesChecked < c.sampleSize {
		remainingCheck := c.sampleSize - c.bytesChecked
		toCheck := p
		if len(toCheck) > remainingCheck {
			toCheck = toCheck[:remainingCheck]
		}

		if c.detector.IsBinaryContent(toCheck) {
			c.isBinary = true
			c.truncated = true
			return len(p), nil
		}
		c.bytesChecked += len(toCheck)
	}

	toWrite := p
	if c.maxLines > 0 {
		if c.lines >= c.maxLines {
			c.truncated = true
			return len(p), nil
		}
		for i, b := range toWrite {
			if b != '\n' {
				continue
			}
			c.lines++
			if c.lines >= c.maxLines {
				toWrite = toWrite[:i+1]
				if len(toWrite) < len(p) {
					c.truncated = true
				}
				break
			}
		}
	}

	remainingSpace := c.maxBytes - c.buffer.Len()
	if remainingSpace <= 0 {
		c.truncated = true
		return len(p), nil
	}

	if len(toWrite) > remainingSpace {
		toWrite = toWrite[:remainingSpace]
		c.truncated = true
	}

	written, err := c.buffer.Write(toWrite)
	if err != nil {
		return written, err
	}

	return len(p), nil
}

func (c *collector) String() string {
	if c.isBinary {
		return "[Binary Content]"
	}
	return c.buffer.String()
}

func (c *collector) Truncated() bool {
	return c.truncated
}

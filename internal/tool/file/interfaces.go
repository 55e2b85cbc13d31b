package file

// pathResolver resolves a caller-supplied path into workspace-anchored
// absolute and relative forms, rejecting escapes and sensitive targets.
type pathResolver interface {
	Resolve(path string) (abs string, rel string, err error)
}

// pathLocker serialises mutations of the same absolute path.
type pathLocker interface {
	Lock(abs string) (unlock func())
}

// binaryDetector reports whether content looks like binary data.
type binaryDetector interface {
	IsBinaryContent(content []byte) bool
}

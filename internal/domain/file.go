package domain

// SharedFile is a file announced to the room by an uploader.
type SharedFile struct {
	Filename string
	Uploader string
}

package model

// ImageFile is a raw image attached to a rejection reason before upload.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

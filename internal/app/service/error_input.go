package service

import "github.com/sifan077/LinkDesk/internal/app/model"

type errorInputKind int

const (
	inputTextOnly errorInputKind = iota
	inputWithImageURL
	inputWithRawImage
)

// ErrorInput is a rejection reason waiting to be staged. Build it with
// TextOnly, WithImageURL or WithRawImage.
type ErrorInput struct {
	kind     errorInputKind
	text     string
	imageURL string
	image    *model.ImageFile
	preview  string
}

// TextOnly is a reason without an image.
func TextOnly(text string) ErrorInput {
	return ErrorInput{kind: inputTextOnly, text: text}
}

// WithImageURL is a reason whose image is already hosted at url.
func WithImageURL(text, url, preview string) ErrorInput {
	return ErrorInput{kind: inputWithImageURL, text: text, imageURL: url, preview: preview}
}

// WithRawImage is a reason whose image still has to be uploaded.
func WithRawImage(text string, image model.ImageFile, preview string) ErrorInput {
	return ErrorInput{kind: inputWithRawImage, text: text, image: &image, preview: preview}
}

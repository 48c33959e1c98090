//go:build !ios && !android && (amd64 || arm64)

package fftranscode

// FileContext is the part shared by input and output file contexts. Each
// is opened by its constructor (OpenInput, OpenOutput) and released once
// with Close.
type FileContext interface {
	Path() string
	Close() error
}

var (
	_ FileContext = (*InputFileContext)(nil)
	_ FileContext = (*OutputFileContext)(nil)
)

package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html
var indexHTML string

//go:embed js/*
var staticContent embed.FS

func GetIndexHTML() string {
	return indexHTML
}

// GetStaticContent returns the files under js/ rooted at the js directory.
func GetStaticContent() fs.FS {
	sub, err := fs.Sub(staticContent, "js")
	if err != nil {
		panic(err)
	}
	return sub
}

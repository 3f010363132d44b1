// Package asset holds the files used to build the plot page.
package asset

import (
	"embed"
	"io/fs"
)

//go:embed data
var data embed.FS

// Data returns all the asset files, rooted at the data directory.
// Templates live at the top level; files that can be served
// to the browser as is live under static.
func Data() fs.FS {
	return sub("data")
}

// Static returns the files that can be served directly, rooted at
// the static directory.
func Static() fs.FS {
	return sub("data/static")
}

func sub(dir string) fs.FS {
	data1, err := fs.Sub(data, dir)
	if err != nil {
		panic(err)
	}
	return data1
}

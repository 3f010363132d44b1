package plotserver

import (
	"html/template"
	"io/fs"
	"strings"
	"unicode/utf8"

	"github.com/rogpeppe/liveplot/asset"
)

var tmplFuncs = template.FuncMap{
	"capitalize": func(s string) string {
		_, n := utf8.DecodeRuneInString(s)
		if u := strings.ToUpper(s[0:n]); u != s[0:n] {
			return u + s[n:]
		}
		return s
	},
}

func newTemplate(s string) *template.Template {
	return template.Must(template.New("").Funcs(tmplFuncs).Parse(s))
}

var indexTempl = newTemplate(mustReadAsset("index.html"))

type indexTemplParams struct {
	Title    string
	DataFile string
	Length   int
}

func mustReadAsset(name string) string {
	data, err := fs.ReadFile(asset.Data(), name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

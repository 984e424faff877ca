package main

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"github.com/woozymasta/dzmeasure/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Dir string `short:"d" long:"dir" description:"Assets directory" default:"assets"`
}

type PageData struct {
	CSS string
	JS  string
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)

	cssMin := minifyFile(m, "text/css", filepath.Join(opts.Dir, "style.css"))
	jsMin := minifyFile(m, "text/javascript", filepath.Join(opts.Dir, "script.js"))

	// favicon is embedded separately, minified in place
	faviconPath := filepath.Join(opts.Dir, "favicon.svg")
	svgMin := minifyFile(m, "image/svg+xml", faviconPath)
	if err := os.WriteFile(faviconPath, []byte(svgMin), 0644); err != nil {
		log.Fatal().Err(err).Str("file", faviconPath).Msg("Failed to write favicon")
	}

	tplPath := filepath.Join(opts.Dir, "index.html.tpl")
	htmlRaw, err := os.ReadFile(tplPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", tplPath).Msg("Failed to read template")
	}

	tmpl, err := template.New("index").Parse(string(htmlRaw))
	if err != nil {
		log.Fatal().Err(err).Str("file", tplPath).Msg("Failed to parse template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, PageData{CSS: cssMin, JS: jsMin}); err != nil {
		log.Fatal().Err(err).Msg("Failed to execute template")
	}

	finalHTML, err := m.String("text/html", buf.String())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to minify HTML")
	}

	out := filepath.Join(opts.Dir, "index.html")
	if err := os.WriteFile(out, []byte(finalHTML), 0644); err != nil {
		log.Fatal().Err(err).Str("file", out).Msg("Failed to write index")
	}

	log.Info().
		Str("file", out).
		Int("size", len(finalHTML)).
		Msg("Minify done")
}

func minifyFile(m *minify.M, mediatype, path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read asset")
	}
	out, err := m.String(mediatype, string(raw))
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to minify asset")
	}
	return out
}

package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	content, err := fs.ReadFile(TemplateFilesFS(), name)
	if err != nil {
		return nil, err
	}
	return template.New(name).Parse(string(content))
}

// PageHandler renders a static page template with the app name and any error query value
func (s *Server) PageHandler(name string, status int) (http.HandlerFunc, error) {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"AppName": s.appName,
			"Error":   r.URL.Query().Get("error"),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := tmpl.Execute(w, data); err != nil {
			s.logger.Err(err).Str("template", name).Msg("Failed to render page")
		}
	}, nil
}

package server

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*
var templateFiles embed.FS

var pageTemplates = []string{
	"login.html",
	"signup.html",
	"lessons.html",
	"moderation.html",
	"admin.html",
	"unauthorized.html",
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// parseTemplates pairs every page with the shared layout.
func parseTemplates() (map[string]*template.Template, error) {
	fsys := TemplateFilesFS()
	templates := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		tmpl, err := template.New("layout.html").ParseFS(fsys, "layout.html", name)
		if err != nil {
			return nil, err
		}
		templates[name] = tmpl
	}
	return templates, nil
}

// PageData is shared by every template.
type PageData struct {
	AppName       string
	User          *PageUser
	Error         string
	Email         string
	Redirect      string
	RememberedFor string
	Providers     []string
	Lessons       []Lesson
}

// PageUser is the display subset of the signed-in user.
type PageUser struct {
	Name  string
	Email string
	Role  string
}

// Lesson is a row on the lessons page.
type Lesson struct {
	ID       string
	Title    string
	Language string
	Level    string
}

package server

import (
	"net/http"
	"strings"
)

var lessonCatalogue = []Lesson{
	{ID: "es-a1-greetings", Title: "Greetings and introductions", Language: "Spanish", Level: "A1"},
	{ID: "es-a1-numbers", Title: "Numbers and time", Language: "Spanish", Level: "A1"},
	{ID: "fr-a2-travel", Title: "Getting around town", Language: "French", Level: "A2"},
	{ID: "de-b1-work", Title: "Talking about work", Language: "German", Level: "B1"},
}

// IndexHandler sends the user to lessons or to login.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store.IsAuthenticated() {
			http.Redirect(w, r, RouteLessons, http.StatusFound)
			return
		}
		http.Redirect(w, r, RouteLogin, http.StatusFound)
	}
}

func (s *Server) LessonsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.pageData()
		data.Lessons = lessonCatalogue
		s.render(w, http.StatusOK, "lessons.html", data)
	}
}

func (s *Server) ModerationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, "moderation.html", s.pageData())
	}
}

func (s *Server) AdminHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, "admin.html", s.pageData())
	}
}

func (s *Server) UnauthorizedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusForbidden, "unauthorized.html", s.pageData())
	}
}

func (s *Server) pageData() PageData {
	data := PageData{AppName: s.appName, Providers: s.providers}
	state := s.store.State()
	if state.IsAuthenticated() {
		name := strings.TrimSpace(state.User.FirstName + " " + state.User.LastName)
		data.User = &PageUser{
			Name:  displayName(name, state.User.Email),
			Email: state.User.Email,
			Role:  state.User.Role,
		}
	}
	return data
}

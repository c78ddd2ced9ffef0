package web

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/baalimago/charadex/internal/controller"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
)

//go:embed page.html
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

const EmptyResponse = "No response yet..."

type pageData struct {
	Title          string
	Model          string
	EmptyResponse  string
	EmptyPrompt    string
	FailureMessage string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if _, cookie := sessionID(r); cookie != nil {
		http.SetCookie(w, cookie)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pageTemplate.Execute(w, pageData{
		Title:          "CharaDex",
		Model:          s.opts.Model,
		EmptyResponse:  EmptyResponse,
		EmptyPrompt:    controller.EmptyPromptAlert,
		FailureMessage: controller.FailureMessage,
	})
	if err != nil {
		ancli.PrintWarn("failed to render page: " + err.Error() + "\n")
	}
}

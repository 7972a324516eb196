package controllers

import (
	"net/textproto"

	"github.com/datallboy/gonews/internal/news"
)

// ArticleView is the JSON shape of a fetched article. Headers and Body are
// omitted when the command did not return them.
type ArticleView struct {
	Group     string               `json:"group"`
	Ref       string               `json:"ref"`
	MessageID string               `json:"messageId,omitempty"`
	Headers   textproto.MIMEHeader `json:"headers,omitempty"`
	Body      *string              `json:"body,omitempty"`
}

func newArticleView(g *news.Group, ref news.ArticleRef, a *news.Article) ArticleView {
	v := ArticleView{
		Group:   g.Name,
		Ref:     ref.String(),
		Headers: a.Header(),
	}
	if a.HasHeaders() {
		v.MessageID = a.Get("Message-ID")
	}
	if a.HasBody() {
		body := a.Body()
		v.Body = &body
	}
	return v
}

// NewGroupsView lists groups created since Since, after wildmat filtering.
type NewGroupsView struct {
	Since  string             `json:"since"`
	Match  string             `json:"match,omitempty"`
	Groups []news.GroupResult `json:"groups"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

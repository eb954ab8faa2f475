package email

import "strings"

// LinkBuilder produces the accept URL embedded in invitation mail.
type LinkBuilder struct {
	baseURL string
}

func NewLinkBuilder(baseURL string) LinkBuilder {
	return LinkBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

func (b LinkBuilder) AcceptURL(code string) string {
	return b.baseURL + "/invitations/" + code + "/accept"
}

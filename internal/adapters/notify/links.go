package notify

import (
	"net/url"
	"strings"
)

// linkTemplates son las URLs de búsqueda por casa. %s recibe "home+vs+away".
var linkTemplates = map[string]string{
	"bet365":      "https://www.bet365.it/#/AC/B1/C1/D13/E42945728/F2/",
	"snai":        "https://www.snai.it/sport?search=%s",
	"betway":      "https://sports.betway.it/it/sports?search=%s",
	"bwin":        "https://sports.bwin.it/it/sports#search=%s",
	"williamhill": "https://sports.williamhill.it/betting/it-it#search=%s",
}

// BuildLink devuelve el enlace a la casa para el partido. Casas desconocidas
// apuntan a https://www.{key}.com.
func BuildLink(bookmaker, home, away string) string {
	tmpl, ok := linkTemplates[bookmaker]
	if !ok {
		return "https://www." + bookmaker + ".com"
	}
	if !strings.Contains(tmpl, "%s") {
		return tmpl
	}
	query := url.QueryEscape(home) + "+vs+" + url.QueryEscape(away)
	return strings.Replace(tmpl, "%s", query, 1)
}

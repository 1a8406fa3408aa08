// Package presenter renders fetch failures as short, localized sentences for
// people running the CLI.
package presenter

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	fetcherrors "github.com/samvad-hq/mtg-card-harvester/pkg/errors"
)

const (
	keyInvalidURL      = "The card service address is not valid."
	keyInvalidResponse = "The card service answered with status %d."
	keyDecodingFailed  = "The card service sent data that could not be read."
	keyCardsFound      = "%d cards found."
)

var supported = []language.Tag{language.English, language.Spanish}

// translations holds every message per supported language, keyed by its
// English source text.
var translations = map[language.Tag]map[string]string{
	language.English: {
		keyInvalidURL:      keyInvalidURL,
		keyInvalidResponse: keyInvalidResponse,
		keyDecodingFailed:  keyDecodingFailed,
		keyCardsFound:      keyCardsFound,
	},
	language.Spanish: {
		keyInvalidURL:      "La dirección del servicio de cartas no es válida.",
		keyInvalidResponse: "El servicio de cartas respondió con el estado %d.",
		keyDecodingFailed:  "El servicio de cartas envió datos que no se pudieron leer.",
		keyCardsFound:      "%d cartas encontradas.",
	},
}

var (
	cat     = buildCatalog()
	matcher = language.NewMatcher(supported)
)

// buildCatalog panics on a malformed entry.
func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("presenter: catalog entry %s %q: %v", tag, key, err))
			}
		}
	}
	return b
}

// Presenter turns errors into user-facing text in one language.
type Presenter struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a presenter for the closest supported language to tag.
func New(tag language.Tag) *Presenter {
	_, idx, _ := matcher.Match(tag)
	resolved := supported[idx]
	return &Presenter{
		tag:     resolved,
		printer: message.NewPrinter(resolved, message.Catalog(cat)),
	}
}

// ForLocale parses a locale string such as "es" or "en-US"; unknown or
// malformed locales fall back to English.
func ForLocale(locale string) *Presenter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	return New(tag)
}

// Language reports the language messages are rendered in.
func (p *Presenter) Language() language.Tag { return p.tag }

// Message describes err. Failures without a classification are returned as
// their raw error text.
func (p *Presenter) Message(err error) string {
	if err == nil {
		return ""
	}
	kind, ok := fetcherrors.KindOf(err)
	if !ok {
		return err.Error()
	}

	switch kind {
	case fetcherrors.KindInvalidURL:
		return p.printer.Sprintf(keyInvalidURL)
	case fetcherrors.KindInvalidResponse:
		var fe *fetcherrors.FetchError
		status := 0
		if errors.As(err, &fe) {
			status = fe.StatusCode
		}
		return p.printer.Sprintf(keyInvalidResponse, status)
	case fetcherrors.KindDecodingFailed:
		return p.printer.Sprintf(keyDecodingFailed)
	default:
		return err.Error()
	}
}

// CardsFound renders the result count line.
func (p *Presenter) CardsFound(n int) string {
	return p.printer.Sprintf(keyCardsFound, n)
}

// Package translate renders user-facing simulator messages in the host
// locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

// DefaultLocale is used when the host reports no usable locale.
const DefaultLocale = "en-US"

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("sim8085: locale: %v", err)
	}

	SetLocales(locales...)
}

// SetLocales selects the printer language from an ordered list of BCP 47
// tags. An empty list selects DefaultLocale.
func SetLocales(locales ...string) {
	if len(locales) == 0 {
		locales = []string{DefaultLocale}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

// Package i18n holds the user-visible messages in Polish and English.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DefaultLocale = "pl"

// Message keys double as the English text.
const (
	MsgInvalidRequest = "Invalid request: %s"
	MsgThemeRequired  = "Enter a theme."
	MsgPickIdeaFirst  = "Generate and pick a prompt first."
	MsgMissingAPIKey  = "Missing OPENAI_API_KEY."
	MsgAPIError       = "API error: %s"
	MsgParseError     = "The model did not return valid JSON."
	MsgMalformed      = "The API returned an unexpected response."
	MsgNotFound       = "Session or resource not found."
	MsgIdeasReady     = "Done: %d ideas."
	MsgImagesReady    = "Done: %d of %d images generated."
	MsgNoImages       = "No images were generated."
	MsgNothingToSave  = "There are no images to download yet."
	MsgVariantFailed  = "Variant #%d failed: %s"
	MsgRateLimited    = "Too many requests, try again later."
	MsgInternal       = "Something went wrong."
	MsgStaleBatch     = "The ideas changed while images were being generated. The images were discarded."
)

var polish = map[string]string{
	MsgInvalidRequest: "Nieprawidłowe żądanie: %s",
	MsgThemeRequired:  "Podaj temat.",
	MsgPickIdeaFirst:  "Najpierw wygeneruj i wybierz prompt powyżej.",
	MsgMissingAPIKey:  "Brak OPENAI_API_KEY.",
	MsgAPIError:       "Błąd API: %s",
	MsgParseError:     "Model nie zwrócił poprawnego JSON-a.",
	MsgMalformed:      "API zwróciło nieoczekiwaną odpowiedź.",
	MsgNotFound:       "Nie znaleziono sesji ani zasobu.",
	MsgIdeasReady:     "Gotowe: %d propozycji.",
	MsgImagesReady:    "Gotowe: wygenerowano %d z %d obrazków.",
	MsgNoImages:       "Nie udało się wygenerować żadnego obrazka.",
	MsgNothingToSave:  "Nie ma jeszcze obrazków do pobrania.",
	MsgVariantFailed:  "Wariant #%d nie powiódł się: %s",
	MsgRateLimited:    "Zbyt wiele żądań, spróbuj ponownie później.",
	MsgInternal:       "Coś poszło nie tak.",
	MsgStaleBatch:     "Propozycje zmieniły się w trakcie generowania. Obrazki odrzucono.",
}

var (
	supported = []language.Tag{language.Polish, language.English}
	matcher   = language.NewMatcher(supported)
)

func init() {
	for key, pl := range polish {
		_ = message.SetString(language.Polish, key, pl)
		_ = message.SetString(language.English, key, key)
	}
}

// Match picks the best supported locale for a comma separated list of
// language preferences, such as an Accept-Language header. It returns ""
// when nothing matches.
func Match(preferences string) string {
	tags, _, err := language.ParseAcceptLanguage(preferences)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := matcher.Match(tags...)
	if conf < language.High {
		return ""
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// Normalize maps any locale string to a supported one.
func Normalize(locale string) string {
	if m := Match(strings.TrimSpace(locale)); m != "" {
		return m
	}
	return DefaultLocale
}

// Sprintf renders key for locale.
func Sprintf(locale, key string, args ...any) string {
	tag := language.Polish
	if Normalize(locale) == "en" {
		tag = language.English
	}
	return message.NewPrinter(tag).Sprintf(key, args...)
}

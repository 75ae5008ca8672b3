// Package locale holds the user-visible status and error strings a surface
// shows, in every language the server ships.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed messages/*.toml
var messageFiles embed.FS

// Message ids.
const (
	EditModeRequired     = "EditModeRequired"
	NoControl            = "NoControl"
	ControlNotFound      = "ControlNotFound"
	SliderInUse          = "SliderInUse"
	DuplicateSlider      = "DuplicateSlider"
	UnknownAxis          = "UnknownAxis"
	InvalidSource        = "InvalidSource"
	PersistFailed        = "PersistFailed"
	LayoutSaveFailed     = "LayoutSaveFailed"
	LayoutSaved          = "LayoutSaved"
	DrivingConfigSaved   = "DrivingConfigSaved"
	GyroPermissionDenied = "GyroPermissionDenied"
	BadMessage           = "BadMessage"
	Failed               = "Failed"
)

// Bundle is the set of loaded message catalogues.
type Bundle struct {
	bundle *i18n.Bundle
	log    *slog.Logger
}

// NewBundle loads the embedded catalogues. English is the fallback.
func NewBundle(logger *slog.Logger) (*Bundle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(messageFiles, "messages/*.toml")
	if err != nil {
		return nil, err
	}
	for _, name := range files {
		if _, err := b.LoadMessageFileFS(messageFiles, name); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}
	return &Bundle{bundle: b, log: logger}, nil
}

// Languages lists the catalogues available.
func (b *Bundle) Languages() []language.Tag { return b.bundle.LanguageTags() }

// Localizer picks the best match among langs, which may be tags or
// Accept-Language values.
func (b *Bundle) Localizer(langs ...string) *Localizer {
	return &Localizer{loc: i18n.NewLocalizer(b.bundle, langs...), log: b.log}
}

// Localizer translates message ids for one client.
type Localizer struct {
	loc *i18n.Localizer
	log *slog.Logger
}

// T returns the message for id. An unknown id comes back unchanged.
func (l *Localizer) T(id string, data map[string]any) string {
	s, err := l.loc.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		l.log.Debug("missing translation", "id", id, "error", err)
		return id
	}
	return s
}

// Package catalog loads the static option tables shipped with the binary:
// avatar style choices, personality traits, bio openers, post keywords,
// stock video assets and the script template.
package catalog

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"socialdeck/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// Option is one selectable value of an avatar style field.
type Option struct {
	Key   string `yaml:"key" json:"key"`
	Token string `yaml:"token" json:"-"`
	Label string `yaml:"label" json:"label"`
}

// StyleField is the closed set of options for one avatar style field.
type StyleField struct {
	Param   string   `yaml:"param" json:"-"`
	Default string   `yaml:"default" json:"default"`
	Options []Option `yaml:"options" json:"options"`
}

// VideoAsset is a stock clip matched by any of its keywords.
type VideoAsset struct {
	Keywords []string `yaml:"keywords"`
	URL      string   `yaml:"url"`
}

// Catalog holds every static table.
type Catalog struct {
	Avatar map[string]StyleField `yaml:"avatar"`
	Traits []string              `yaml:"traits"`
	Bios   map[string]string     `yaml:"bios"`
	Posts  struct {
		Keywords  []string `yaml:"keywords"`
		Templates []string `yaml:"templates"`
	} `yaml:"posts"`
	Video struct {
		Default string       `yaml:"default"`
		Assets  []VideoAsset `yaml:"assets"`
	} `yaml:"video"`
	Script struct {
		Template string `yaml:"template"`
	} `yaml:"script"`
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Default returns the embedded catalog. It panics if the embedded file is invalid.
func Default() *Catalog {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(embedded)
	})
	if loadErr != nil {
		panic(fmt.Sprintf("catalog: invalid embedded catalog: %v", loadErr))
	}
	return loaded
}

// Parse decodes and validates a catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	for _, field := range models.StyleFields {
		sf, ok := c.Avatar[field]
		if !ok {
			return fmt.Errorf("avatar field %q missing", field)
		}
		if len(sf.Options) == 0 {
			return fmt.Errorf("avatar field %q has no options", field)
		}
		if _, ok := c.StyleOption(field, sf.Default); !ok {
			return fmt.Errorf("avatar field %q default %q is not an option", field, sf.Default)
		}
	}
	if len(c.Traits) == 0 {
		return fmt.Errorf("no traits")
	}
	if len(c.Posts.Keywords) == 0 || len(c.Posts.Templates) == 0 {
		return fmt.Errorf("post keywords and templates are required")
	}
	if c.Video.Default == "" {
		return fmt.Errorf("video default asset is required")
	}
	if strings.TrimSpace(c.Script.Template) == "" {
		return fmt.Errorf("script template is required")
	}
	return nil
}

// HasTrait reports whether trait is selectable.
func (c *Catalog) HasTrait(trait string) bool {
	for _, t := range c.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// StyleOption looks up the option key of field.
func (c *Catalog) StyleOption(field, key string) (Option, bool) {
	sf, ok := c.Avatar[field]
	if !ok {
		return Option{}, false
	}
	for _, o := range sf.Options {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

// DefaultStyle is the style a new profile starts with.
func (c *Catalog) DefaultStyle() models.AvatarStyle {
	var s models.AvatarStyle
	for _, field := range models.StyleFields {
		s.Set(field, c.Avatar[field].Default)
	}
	return s
}

// BioFor returns the bio opener for trait, or "" when none is defined.
func (c *Catalog) BioFor(trait string) string {
	return c.Bios[trait]
}

// VideoFor returns the first asset whose keyword appears in prompt, falling
// back to the default clip. Matching is case-insensitive on whole words.
func (c *Catalog) VideoFor(prompt string) (string, bool) {
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		words[w] = struct{}{}
	}
	for _, asset := range c.Video.Assets {
		for _, kw := range asset.Keywords {
			if _, ok := words[strings.ToLower(kw)]; ok {
				return asset.URL, true
			}
		}
	}
	return c.Video.Default, false
}

// AvatarURL renders style into the avatar service URL. Unknown or empty
// values fall back to the field default so the URL is always complete.
func (c *Catalog) AvatarURL(baseURL string, style models.AvatarStyle) string {
	q := url.Values{}
	q.Set("avatarStyle", "Circle")
	for _, field := range models.StyleFields {
		sf := c.Avatar[field]
		opt, ok := c.StyleOption(field, style.Get(field))
		if !ok {
			opt, _ = c.StyleOption(field, sf.Default)
		}
		q.Set(sf.Param, opt.Token)
	}
	base := strings.TrimSuffix(baseURL, "?")
	return base + "?" + q.Encode()
}

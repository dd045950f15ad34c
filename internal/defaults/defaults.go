// Package defaults provides the compiled-in site content used when nothing is
// persisted yet and by the reset operation.
package defaults

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/and161185/sitecms/internal/model"
)

//go:embed default_content.json
var raw []byte

func init() {
	if _, err := parse(); err != nil {
		panic(fmt.Sprintf("defaults: embedded content is invalid: %v", err))
	}
}

func parse() (model.SiteContent, error) {
	var c model.SiteContent
	err := json.Unmarshal(raw, &c)
	return c, err
}

// Default returns a fresh copy of the default document; callers may mutate it.
func Default() model.SiteContent {
	c, _ := parse()
	return c
}

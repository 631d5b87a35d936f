package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var (
	nowFunc = time.Now
	newID   = func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }
)

// ObjectKey builds files/YYYY/MM/DD/<uuid-hex>-<slug>.pdf. The random part
// keeps keys unique even for identical names.
func ObjectKey(suggestedName string) string {
	now := nowFunc().UTC()
	base := filepath.Base(strings.ReplaceAll(suggestedName, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := slug.Make(base)
	if len(name) > 40 {
		name = strings.Trim(name[:40], "-")
	}
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("files/%d/%02d/%02d/%s-%s.pdf", now.Year(), now.Month(), now.Day(), newID(), name)
}

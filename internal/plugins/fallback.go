package plugins

import (
	"context"

	"github.com/pders01/gamelib/internal/debuglog"
	"github.com/pders01/gamelib/internal/storage"
)

// FallbackSource serves Primary and switches to Secondary when Primary
// fails with an error Use accepts. It reports Primary's identity.
type FallbackSource struct {
	Primary   Source
	Secondary Source
	Use       func(error) bool
}

func (f *FallbackSource) Name() string     { return f.Primary.Name() }
func (f *FallbackSource) Platform() string { return f.Primary.Platform() }
func (f *FallbackSource) Priority() int    { return f.Primary.Priority() }

func (f *FallbackSource) Library(ctx context.Context) ([]*storage.Game, error) {
	games, err := f.Primary.Library(ctx)
	if err == nil || f.Secondary == nil || f.Use == nil || !f.Use(err) {
		return games, err
	}
	debuglog.Infof("%s unavailable (%v), serving %s", f.Primary.Name(), err, f.Secondary.Name())
	return f.Secondary.Library(ctx)
}

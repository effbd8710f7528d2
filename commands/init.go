package commands

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"rossip/config"

	log "github.com/sirupsen/logrus"
)

// RunInit writes cfg to its file. An existing file is left alone.
func RunInit(ctx context.Context, cfg *config.Config) error {
	_, err := os.Stat(cfg.ConfigFile())
	if err == nil {
		return errors.New("config file already exists: " + cfg.ConfigFile())
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	log.Infof("Wrote default config for %q to %s", cfg.Node.Name, cfg.ConfigFile())
	return nil
}

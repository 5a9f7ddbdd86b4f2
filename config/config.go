// Package config loads the optional curve tuning file and watches it
// for changes.
package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/danielchen8624/smartdim/curve"
)

// Tuning mirrors curve.Options in the TOML tuning file. All fields are
// optional; a zero value falls back to the engine default.
type Tuning struct {
	Samples    int     `toml:"samples"`
	GuardWidth float64 `toml:"guard_width"`
	Rolloff    float64 `toml:"rolloff"`
	WhiteCap   float64 `toml:"white_cap"`
	KelvinMin  float64 `toml:"kelvin_min"`
	KelvinMax  float64 `toml:"kelvin_max"`
}

// Default returns the tuning matching curve.DefaultOptions.
func Default() Tuning {
	opts := curve.DefaultOptions()

	return Tuning{
		Samples:    opts.Samples,
		GuardWidth: opts.GuardWidth,
		Rolloff:    opts.Rolloff,
		WhiteCap:   opts.WhiteCap,
		KelvinMin:  opts.KelvinMin,
		KelvinMax:  opts.KelvinMax,
	}
}

// Options converts the tuning to engine options, filling defaults for
// unset fields.
func (t Tuning) Options() curve.Options {
	opts := curve.DefaultOptions()

	if t.Samples != 0 {
		opts.Samples = t.Samples
	}
	if t.GuardWidth != 0 {
		opts.GuardWidth = t.GuardWidth
	}
	if t.Rolloff != 0 {
		opts.Rolloff = t.Rolloff
	}
	if t.WhiteCap != 0 {
		opts.WhiteCap = t.WhiteCap
	}
	if t.KelvinMin != 0 {
		opts.KelvinMin = t.KelvinMin
	}
	if t.KelvinMax != 0 {
		opts.KelvinMax = t.KelvinMax
	}

	return opts
}

// Load reads the tuning file. A missing file is not an error: the
// defaults apply.
func Load(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}

		return Tuning{}, fmt.Errorf("reading tuning file: %w", err)
	}

	tuning := Default()

	if err := toml.Unmarshal(data, &tuning); err != nil {
		return Tuning{}, fmt.Errorf("parsing tuning file: %w", err)
	}

	return tuning, nil
}

// Watch reloads the tuning file whenever it changes and calls onChange
// with the result, until the context ends. The parent directory is
// watched because editors typically replace the file. A broken file is
// logged and skipped, keeping the previous tuning.
func Watch(ctx context.Context, path string, onChange func(Tuning)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if event.Name != path {
					continue
				}

				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				tuning, err := Load(path)
				if err != nil {
					log.Printf("Failed to reload tuning: %s\n", err)
					continue
				}

				onChange(tuning)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				log.Printf("Tuning watcher error: %s\n", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

package writer

import (
	"archive/zip"
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/achilleasa/lighttracer/asset/scene"
	"github.com/achilleasa/lighttracer/log"
)

const (
	dataFile = "scene.bin"
)

type zipSceneWriter struct {
	logger   log.Logger
	filename string
}

// Create a new zip scene writer
func newZipSceneWriter(filename string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:   log.New("zip writer"),
		filename: filename,
	}
}

// Write compiled scene as a gob stream inside a zip file.
func (w *zipSceneWriter) Write(sc *scene.Scene) error {
	w.logger.Noticef(`writing compiled scene to "%s"`, w.filename)
	start := time.Now()

	f, err := os.Create(w.filename)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entry, err := zw.Create(dataFile)
	if err != nil {
		return err
	}

	err = gob.NewEncoder(entry).Encode(sc)
	if err != nil {
		return fmt.Errorf("zipSceneWriter: failed to encode scene: %w", err)
	}

	err = zw.Close()
	if err != nil {
		return err
	}

	w.logger.Noticef("wrote scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

package exodus

import (
	"github.com/simherd/simherd/pkg/simdata"
)

// FileDecoder is a stateless decode front-end: each call opens the
// container, extracts, and closes it again. It satisfies the sweep
// package's Decoder interface, and because every open is self-contained
// and read-only it is safe for concurrent use across workers.
type FileDecoder struct{}

// NewFileDecoder returns a decoder for sweep-level reads.
func NewFileDecoder() *FileDecoder {
	return &FileDecoder{}
}

// ReadFile decodes one output file into a canonical record per cfg.
func (FileDecoder) ReadFile(path string, cfg simdata.ReadConfig) (*simdata.SimData, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Read(cfg)
}

// ReadFileAll decodes one output file extracting everything it declares.
func (FileDecoder) ReadFileAll(path string) (*simdata.SimData, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.ReadAll()
}

// DiscoverConfig introspects one output file's name tables and returns the
// configuration equivalent to extracting everything it declares.
func (FileDecoder) DiscoverConfig(path string) (simdata.ReadConfig, error) {
	r, err := NewReader(path)
	if err != nil {
		return simdata.ReadConfig{}, err
	}
	defer r.Close()
	return r.DiscoverConfig(), nil
}

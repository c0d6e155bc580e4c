package export

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
	"github.com/theimaginaryfoundation/aita-sampler/sampling/fileutils"
)

// Metadata is the YAML document written next to a sample.
type Metadata struct {
	GeneratedAt string `yaml:"generated_at"`

	sampling.RunMetadata `yaml:",inline"`

	// Files maps an output kind to the path it was written to.
	Files map[string]string `yaml:"files,omitempty"`
}

func NewMetadata(meta sampling.RunMetadata, files map[string]string, now time.Time) Metadata {
	return Metadata{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		RunMetadata: meta,
		Files:       files,
	}
}

func WriteMetadataYAML(path string, md Metadata) error {
	b, err := yaml.Marshal(md)
	if err != nil {
		return fmt.Errorf("WriteMetadataYAML: marshal: %w", err)
	}
	if err := fileutils.WriteFileAtomicSameDir(path, b, 0o644); err != nil {
		return fmt.Errorf("WriteMetadataYAML: %w", err)
	}
	return nil
}

func ReadMetadataYAML(path string) (Metadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("ReadMetadataYAML: read %s: %w", path, err)
	}
	var md Metadata
	if err := yaml.Unmarshal(b, &md); err != nil {
		return Metadata{}, fmt.Errorf("ReadMetadataYAML: parse %s: %w", path, err)
	}
	return md, nil
}

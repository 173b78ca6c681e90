package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/geosift/internal/geo"
	"github.com/zjrosen/geosift/internal/log"
)

// SaveView records the map center and zoom under the map section of the
// config file. Other keys, comments and formatting are preserved by editing
// the yaml.Node tree.
func SaveView(configPath string, center geo.LatLng, zoom int) error {
	if err := center.Validate(); err != nil {
		return fmt.Errorf("saving view: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	root := documentRoot(&doc)
	if root == nil {
		return fmt.Errorf("config root is not a mapping")
	}
	mapNode := mappingChild(root, "map")
	setScalar(mapNode, "center_lat", strconv.FormatFloat(center.Lat, 'f', 6, 64), "!!float")
	setScalar(mapNode, "center_lon", strconv.FormatFloat(center.Lng, 'f', 6, 64), "!!float")
	setScalar(mapNode, "zoom", strconv.Itoa(zoom), "!!int")

	if err := writeNode(configPath, &doc); err != nil {
		return err
	}
	log.Info(log.CatConfig, "Saved map view", "path", configPath, "center", center, "zoom", zoom)
	return nil
}

// documentRoot returns the top-level mapping, creating the document when
// the file was empty. Returns nil when the root is some other node kind.
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == 0 {
		*doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	return root
}

// mappingChild finds key in m, replacing a non-mapping value or appending
// a new mapping when absent.
func mappingChild(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i < len(m.Content)-1; i += 2 {
		if m.Content[i].Value != key {
			continue
		}
		if m.Content[i+1].Kind != yaml.MappingNode {
			m.Content[i+1] = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		return m.Content[i+1]
	}
	child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		child,
	)
	return child
}

func setScalar(m *yaml.Node, key, value, tag string) {
	for i := 0; i < len(m.Content)-1; i += 2 {
		if m.Content[i].Value == key {
			v := m.Content[i+1]
			v.Kind = yaml.ScalarNode
			v.Tag = tag
			v.Value = value
			v.Content = nil
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value},
	)
}

// writeNode encodes doc and replaces configPath atomically (temp file, then rename).
func writeNode(configPath string, doc *yaml.Node) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".geosift.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

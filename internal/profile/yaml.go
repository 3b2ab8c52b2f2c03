package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stlc/internal/ir"
)

// yamlProfile is the document form of a YAML profile.
type yamlProfile struct {
	Streams []ir.StreamDoc `yaml:"streams"`
}

// loadYAML parses a YAML (or JSON) profile with strict field checking.
func loadYAML(path string, mode LoadMode) (*Profile, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading profile: %v", err)}}
	}

	streams, errs := ParseYAML(data, mode)
	if streams == nil && len(errs) > 0 {
		return nil, errs
	}
	return &Profile{
		Path:      path,
		Format:    FormatYAML,
		FileCount: 1,
		Streams:   streams,
	}, errs
}

// ParseYAML decodes a `streams:` document. Unknown fields are rejected.
func ParseYAML(data []byte, mode LoadMode) ([]ir.Stream, []error) {
	var doc yamlProfile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, []error{&LoadError{Code: ErrCodeNoStreams, Message: "profile is empty"}}
		}
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing profile: %v", err)}}
	}
	if len(doc.Streams) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoStreams, Message: "no streams declared in profile"}}
	}

	var errs []error
	streams := make([]ir.Stream, 0, len(doc.Streams))
	for i, d := range doc.Streams {
		s, err := d.ToStream()
		if err != nil {
			errs = append(errs, &LoadError{
				Code:    ErrCodeInvalidStream,
				Message: fmt.Sprintf("streams[%d]: %v", i, err),
			})
			if mode == LoadModeFailFast {
				return streams, errs
			}
			continue
		}
		streams = append(streams, s)
	}
	return streams, errs
}

package stortinget

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://stortingsync.local/schemas/"

const (
	schemaParties       = "parties.json"
	schemaHearings      = "hearings.json"
	schemaCases         = "cases.json"
	schemaVotes         = "votes.json"
	schemaVoteProposals = "vote_proposals.json"
)

type schemaSet struct {
	schemas map[string]*jsonschema.Schema
}

func loadSchemas() (*schemaSet, error) {
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}

	c := jsonschema.NewCompiler()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", e.Name(), err)
		}
		if err := c.AddResource(schemaBaseURL+e.Name(), doc); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", e.Name(), err)
		}
		names = append(names, e.Name())
	}

	set := &schemaSet{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		sch, err := c.Compile(schemaBaseURL + name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		set.schemas[name] = sch
	}
	return set, nil
}

// validate проверяет тело ответа по схеме эндпоинта
func (s *schemaSet) validate(name string, body []byte) error {
	sch, ok := s.schemas[name]
	if !ok {
		return fmt.Errorf("schema %s not registered", name)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return schemaViolation("%s: invalid json: %v", name, err)
	}
	if err := sch.Validate(inst); err != nil {
		return schemaViolation("%s: %v", name, err)
	}
	return nil
}

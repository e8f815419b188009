// Package reply turns dispatch outcomes into user-facing text. Wording
// lives in an embedded YAML file of response pools, one pool per outcome,
// with several phrasings each so consecutive answers do not repeat
// verbatim. The file is validated against a JSON Schema at load so a typo
// in the pools fails startup instead of producing a silent blank reply.
package reply

import (
	_ "embed"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed responses.yaml
var responsesYAML []byte

const poolsSchema = `{
  "type": "object",
  "required": ["version", "pools"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "pools": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "array",
        "minItems": 1,
        "items": {"type": "string", "minLength": 1}
      }
    }
  }
}`

type poolFile struct {
	Version int                 `yaml:"version"`
	Pools   map[string][]string `yaml:"pools"`
}

// Picker selects a variant from a pool. It is seedable so tests and replays
// get stable wording.
type Picker struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewPicker returns a Picker seeded with seed.
func NewPicker(seed int64) *Picker {
	return &Picker{r: rand.New(rand.NewSource(seed))}
}

func (p *Picker) pick(n int) int {
	if n <= 1 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.Intn(n)
}

// Responder renders replies from the embedded pools.
type Responder struct {
	pools  map[string][]string
	picker *Picker
}

// NewResponder loads and validates the embedded pools. The seed controls
// variant selection only, never content.
func NewResponder(seed int64) (*Responder, error) {
	var raw any
	if err := yaml.Unmarshal(responsesYAML, &raw); err != nil {
		return nil, fmt.Errorf("parse responses: %w", err)
	}

	schema, err := jsonschema.CompileString("responses.schema.json", poolsSchema)
	if err != nil {
		return nil, fmt.Errorf("compile responses schema: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("validate responses: %w", err)
	}

	var pf poolFile
	if err := yaml.Unmarshal(responsesYAML, &pf); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}

	return &Responder{pools: pf.Pools, picker: NewPicker(seed)}, nil
}

// Render picks a variant from the named pool and substitutes {field}
// placeholders from data. An unknown pool falls back to the generic unknown
// pool so a dispatch bug degrades to a polite answer, not an empty message.
func (r *Responder) Render(key string, data map[string]string) string {
	pool, ok := r.pools[key]
	if !ok || len(pool) == 0 {
		pool, ok = r.pools["unknown"]
		if !ok || len(pool) == 0 {
			return "Sorry, I did not follow that."
		}
	}
	text := pool[r.picker.pick(len(pool))]
	if len(data) == 0 {
		return text
	}

	repl := make([]string, 0, len(data)*2)
	for k, v := range data {
		repl = append(repl, "{"+k+"}", v)
	}
	return strings.NewReplacer(repl...).Replace(text)
}

// Has reports whether a pool exists, for wiring tests.
func (r *Responder) Has(key string) bool {
	_, ok := r.pools[key]
	return ok
}

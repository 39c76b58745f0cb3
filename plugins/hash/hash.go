// Package hash is a demo plugin exercising internal/plugin's contract
// with a real third-party dependency: content-hash builtins backed by
// golang.org/x/crypto/blake2b alongside stdlib crypto/sha256.
package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/nanolisp/nanolisp/internal/lisperr"
	"github.com/nanolisp/nanolisp/internal/plugin"
	"github.com/nanolisp/nanolisp/internal/value"
)

// Plugin has no state of its own; Context returns nil since neither op
// needs one back.
type Plugin struct{}

// New returns the hash demo plugin.
func New() *Plugin { return &Plugin{} }

func (Plugin) Descriptor() plugin.Descriptor {
	strParam := plugin.ParamSchema{
		"type":     "array",
		"items":    map[string]interface{}{"type": "string"},
		"minItems": 1,
		"maxItems": 1,
	}
	return plugin.Descriptor{
		Name:    "hash",
		Version: "v1.0.0",
		Ops: map[string]plugin.Op{
			"sha256": {Fn: opSHA256, Params: strParam},
			"blake2": {Fn: opBlake2, Params: strParam},
		},
	}
}

func (Plugin) Context() interface{} { return nil }

func opSHA256(args []*value.Value, _ interface{}) (*value.Value, error) {
	s, err := stringArg(args)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(s))
	return value.NewString(hex.EncodeToString(sum[:])), nil
}

func opBlake2(args []*value.Value, _ interface{}) (*value.Value, error) {
	s, err := stringArg(args)
	if err != nil {
		return nil, err
	}
	sum := blake2b.Sum256([]byte(s))
	return value.NewString(hex.EncodeToString(sum[:])), nil
}

func stringArg(args []*value.Value) (string, error) {
	if len(args) != 1 {
		return "", lisperr.New(lisperr.IllegalType, "hash")
	}
	return args[0].AsString()
}

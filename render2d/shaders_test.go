// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render2d

import (
	"os"
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
)

type mapBox map[string][]byte

func (b mapBox) List() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	return names
}

func (b mapBox) Find(name string) ([]byte, error) {
	data, ok := b[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func TestShaderStage(t *testing.T) {
	tests := []struct {
		file  string
		stage vk.ShaderStageFlagBits
		ok    bool
	}{
		{"quad.vert.spv", vk.ShaderStageVertexBit, true},
		{"quad.frag.spv", vk.ShaderStageFragmentBit, true},
		{"quad.frag", 0, false},
		{"quad.geom.spv", 0, false},
		{"my.quad.vert.spv", 0, false},
	}
	for _, test := range tests {
		c := qt.New(t)
		stage, ok := shaderStage(test.file)
		c.Assert(ok, qt.Equals, test.ok, qt.Commentf("%s", test.file))
		c.Assert(stage, qt.Equals, test.stage)
	}
}

func TestLoadShaders(t *testing.T) {
	c := qt.New(t)
	sources, err := LoadShaders(mapBox{
		"quad.vert":     []byte("source"),
		"quad.vert.spv": []byte{1, 2, 3, 4},
		"quad.frag.spv": []byte{5, 6, 7, 8},
	})
	c.Assert(err, qt.IsNil)
	c.Assert(sources, qt.HasLen, 2)
	c.Assert(sources[0].Stage, qt.Equals, vk.ShaderStageFragmentBit)
	c.Assert(sources[1].Code, qt.DeepEquals, []byte{1, 2, 3, 4})
}

func TestLoadShadersMissingStage(t *testing.T) {
	c := qt.New(t)
	_, err := LoadShaders(mapBox{"quad.vert.spv": []byte{1, 2, 3, 4}})
	c.Assert(err, qt.ErrorMatches, "missing compiled vertex or fragment shader.*")
}

func TestLoadShadersDuplicateStage(t *testing.T) {
	c := qt.New(t)
	_, err := LoadShaders(mapBox{
		"a.vert.spv": {1, 2, 3, 4},
		"b.vert.spv": {1, 2, 3, 4},
	})
	c.Assert(err, qt.ErrorMatches, "shaders a.vert.spv and b.vert.spv share a stage")
}
